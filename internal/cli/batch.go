package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/constants"
	"github.com/julianstephens/habitcoach/internal/predictor"
)

type BatchCmd struct {
	Day string `help:"Prediction day (YYYY-MM-DD), defaults to today."`
}

// Run scores every active habit across all horizons, the same work the
// nightly job does.
func (c *BatchCmd) Run(ctx *Context) error {
	day := c.Day
	if day == "" {
		day = time.Now().UTC().Format(constants.DateFormat)
	} else if _, err := time.Parse(constants.DateFormat, day); err != nil {
		return fmt.Errorf("invalid --day %q: want YYYY-MM-DD", c.Day)
	}

	result, err := predictor.New(ctx.Store, ctx.Model).RunBatch(day, constants.Horizons)
	if err != nil {
		return err
	}

	fmt.Printf("Batch for %s: %d written, %d cached, %d failed.\n",
		result.Day, result.Written, result.Cached, len(result.Failures))
	for _, failure := range result.Failures {
		fmt.Printf("  habit %s (horizon %d): %s\n", failure.HabitID, failure.HorizonDays, failure.Error)
	}
	return nil
}
