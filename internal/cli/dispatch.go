package cli

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitcoach/internal/mailer"
	"github.com/julianstephens/habitcoach/internal/notify"
)

type DispatchCmd struct{}

// Run delivers due notifications once, the same work the 15-minute job
// does.
func (c *DispatchCmd) Run(ctx *Context) error {
	cfg := ctx.Config
	mail := mailer.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)

	result, err := notify.NewService(ctx.Store, mail).Dispatch(time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("Dispatched %d notification(s), %d failed.\n", result.Sent, result.Failed)
	return nil
}
