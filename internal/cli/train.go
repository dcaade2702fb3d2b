package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/ml"
)

type TrainCmd struct {
	Day     string `help:"Label cutoff day (YYYY-MM-DD), defaults to today."`
	Horizon int    `help:"Label horizon in days." default:"7"`
}

// Run exports the training dataset, fits a model, and registers the
// artifact. Too little data is a hard error so operators notice.
func (c *TrainCmd) Run(ctx *Context) error {
	day := c.Day
	if day == "" {
		day = time.Now().UTC().Format(constants.DateFormat)
	} else if _, err := time.Parse(constants.DateFormat, day); err != nil {
		return fmt.Errorf("invalid --day %q: want YYYY-MM-DD", c.Day)
	}

	dataset, err := ml.ExportSamples(ctx.Store, day, c.Horizon)
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d samples from %d habits.\n", len(dataset.Samples), dataset.Habits)

	artifact, err := ml.Train(dataset)
	if err != nil {
		return err
	}

	path, err := ml.SaveArtifact(artifact, ctx.Config.ModelDir)
	if err != nil {
		return err
	}
	registry, err := ml.OpenRegistry(ctx.Config.ModelDir)
	if err != nil {
		return err
	}
	if err := registry.Register(path, artifact); err != nil {
		return err
	}

	fmt.Printf("Model saved to %s\n", path)
	fmt.Printf("  auc=%.3f precision=%.3f recall=%.3f\n",
		artifact.Metrics["auc"], artifact.Metrics["precision"], artifact.Metrics["recall"])
	return nil
}
