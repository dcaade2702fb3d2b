package ml

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/logger"
	"github.com/julianstephens/habitcoach/internal/models"
	"github.com/julianstephens/habitcoach/internal/stats"
	"github.com/julianstephens/habitcoach/internal/storage"
)

// ErrInsufficientSamples is returned when the dataset does not meet the
// minimum size for training. The caller keeps the previous artifact (or
// the fallback) and reports the failure instead of training a bad model.
var ErrInsufficientSamples = errors.New("insufficient training data")

// Sample is one training example: the feature vector for a habit as of
// a day, labeled with whether the habit was maintained over the
// following horizon.
type Sample struct {
	HabitID  string
	Day      string
	Features map[string]float64
	Label    float64
}

// Dataset is the export result handed to Train.
type Dataset struct {
	Samples []Sample
	// Habits counts distinct habits that contributed samples.
	Habits int
}

// ExportSamples builds the training dataset from stored history. For
// every active habit with at least MinHabitHistory check-ins, each
// entry day old enough to have a full horizon of hindsight becomes one
// sample: features as of that day, labeled 1 when at least one
// qualifying check-in landed within the next horizonDays days.
func ExportSamples(store storage.Provider, asOf string, horizonDays int) (*Dataset, error) {
	asOfDay, err := time.Parse(constants.DateFormat, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse export date %q: %w", asOf, err)
	}

	habits, err := store.GetAllActiveHabits()
	if err != nil {
		return nil, fmt.Errorf("failed to load habits for export: %w", err)
	}

	dataset := &Dataset{}
	for _, habit := range habits {
		entries, err := store.GetAllEntries(habit.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load entries for habit %s: %w", habit.ID, err)
		}
		if len(entries) < constants.MinHabitHistory {
			continue
		}

		samples := habitSamples(habit, entries, asOfDay, horizonDays)
		if len(samples) == 0 {
			continue
		}
		dataset.Samples = append(dataset.Samples, samples...)
		dataset.Habits++
	}

	logger.Info("Training dataset exported",
		"habits", dataset.Habits, "samples", len(dataset.Samples), "horizon_days", horizonDays)
	return dataset, nil
}

func habitSamples(habit models.Habit, entries []models.Entry, asOf time.Time, horizonDays int) []Sample {
	sorted := make([]models.Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Day < sorted[j].Day })

	var samples []Sample
	for i, e := range sorted {
		day, err := time.Parse(constants.DateFormat, e.Day)
		if err != nil {
			continue
		}
		// The label needs a full horizon of hindsight.
		if day.AddDate(0, 0, horizonDays).After(asOf) {
			break
		}

		label := 0.0
		horizonEnd := day.AddDate(0, 0, horizonDays)
		for _, future := range sorted[i+1:] {
			futureDay, err := time.Parse(constants.DateFormat, future.Day)
			if err != nil || futureDay.After(horizonEnd) {
				break
			}
			if stats.Qualifies(habit, future) {
				label = 1
				break
			}
		}

		samples = append(samples, Sample{
			HabitID:  habit.ID,
			Day:      e.Day,
			Features: Features(habit, sorted[:i+1], e.Day),
			Label:    label,
		})
	}
	return samples
}

const (
	trainEpochs       = 60
	trainLearningRate = 0.1
	trainL2           = 1e-3
	trainSeed         = 42
	holdoutFraction   = 0.2
)

// Train fits a logistic-regression classifier on the dataset and
// returns the artifact with holdout metrics. It refuses to train below
// the minimum habit and sample counts.
func Train(dataset *Dataset) (*Artifact, error) {
	if dataset == nil || dataset.Habits < constants.MinTrainingHabits || len(dataset.Samples) < constants.MinTrainingSamples {
		habits, samples := 0, 0
		if dataset != nil {
			habits, samples = dataset.Habits, len(dataset.Samples)
		}
		return nil, fmt.Errorf("%w: have %d habits and %d samples, need %d and %d",
			ErrInsufficientSamples, habits, samples,
			constants.MinTrainingHabits, constants.MinTrainingSamples)
	}

	rng := rand.New(rand.NewSource(trainSeed))
	samples := make([]Sample, len(dataset.Samples))
	copy(samples, dataset.Samples)
	rng.Shuffle(len(samples), func(i, j int) { samples[i], samples[j] = samples[j], samples[i] })

	holdout := int(float64(len(samples)) * holdoutFraction)
	if holdout < 1 {
		holdout = 1
	}
	test, train := samples[:holdout], samples[holdout:]

	mean, std := standardization(train)
	weights := make([]float64, len(FeatureNames))
	bias := 0.0

	for epoch := 0; epoch < trainEpochs; epoch++ {
		rng.Shuffle(len(train), func(i, j int) { train[i], train[j] = train[j], train[i] })
		for _, s := range train {
			z := bias
			for i, name := range FeatureNames {
				z += weights[i] * standardize(s.Features[name], mean[i], std[i])
			}
			grad := sigmoid(z) - s.Label
			for i, name := range FeatureNames {
				x := standardize(s.Features[name], mean[i], std[i])
				weights[i] -= trainLearningRate * (grad*x + trainL2*weights[i])
			}
			bias -= trainLearningRate * grad
		}
	}

	// Fold the standardization into the weights so the artifact scores
	// raw feature values.
	rawWeights := make(map[string]float64, len(FeatureNames))
	rawBias := bias
	for i, name := range FeatureNames {
		rawWeights[name] = weights[i] / std[i]
		rawBias -= weights[i] * mean[i] / std[i]
	}

	artifact := &Artifact{
		Weights:      rawWeights,
		Bias:         rawBias,
		FeatureNames: append([]string(nil), FeatureNames...),
		Metrics:      evaluate(rawWeights, rawBias, test),
		TrainedAt:    time.Now().UTC(),
	}
	artifact.Metrics["train_samples"] = float64(len(train))
	artifact.Metrics["test_samples"] = float64(len(test))
	artifact.Metrics["habits"] = float64(dataset.Habits)

	logger.Info("Model trained",
		"samples", len(samples), "habits", dataset.Habits,
		"auc", artifact.Metrics["auc"],
		"precision", artifact.Metrics["precision"],
		"recall", artifact.Metrics["recall"])
	return artifact, nil
}

func standardization(samples []Sample) (mean, std []float64) {
	mean = make([]float64, len(FeatureNames))
	std = make([]float64, len(FeatureNames))

	for i, name := range FeatureNames {
		for _, s := range samples {
			mean[i] += s.Features[name]
		}
		mean[i] /= float64(len(samples))

		for _, s := range samples {
			d := s.Features[name] - mean[i]
			std[i] += d * d
		}
		std[i] = math.Sqrt(std[i] / float64(len(samples)))
		if std[i] < 1e-9 {
			std[i] = 1
		}
	}
	return mean, std
}

func standardize(v, mean, std float64) float64 {
	return (v - mean) / std
}

// evaluate computes AUC plus precision/recall at the 0.5 threshold on
// the holdout set.
func evaluate(weights map[string]float64, bias float64, test []Sample) map[string]float64 {
	type scored struct {
		prob  float64
		label float64
	}

	scores := make([]scored, 0, len(test))
	for _, s := range test {
		z := bias
		for name, w := range weights {
			z += w * s.Features[name]
		}
		scores = append(scores, scored{prob: sigmoid(z), label: s.Label})
	}

	var tp, fp, fn float64
	for _, s := range scores {
		predicted := s.prob >= 0.5
		switch {
		case predicted && s.label == 1:
			tp++
		case predicted && s.label == 0:
			fp++
		case !predicted && s.label == 1:
			fn++
		}
	}

	metrics := map[string]float64{"auc": 0.5, "precision": 0, "recall": 0}
	if tp+fp > 0 {
		metrics["precision"] = tp / (tp + fp)
	}
	if tp+fn > 0 {
		metrics["recall"] = tp / (tp + fn)
	}

	// Rank-sum AUC; degenerate single-class holdouts stay at 0.5.
	sort.Slice(scores, func(i, j int) bool { return scores[i].prob < scores[j].prob })
	var rankSum, positives, negatives float64
	for i, s := range scores {
		if s.label == 1 {
			rankSum += float64(i + 1)
			positives++
		} else {
			negatives++
		}
	}
	if positives > 0 && negatives > 0 {
		metrics["auc"] = (rankSum - positives*(positives+1)/2) / (positives * negatives)
	}
	return metrics
}
