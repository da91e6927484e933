package system

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/constants"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/storage"
)

type InitCmd struct {
	ResetSettings bool `help:"Overwrite existing settings with the defaults."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized nudge storage at: %s\n", ctx.Store.Path())

	_, exists := storage.Load[models.Settings](ctx.Store, constants.KeySettings)
	if exists && !c.ResetSettings {
		ctx.Println("Existing settings kept.")
		return nil
	}

	settings := models.DefaultSettings()
	if ctx.Timezone != "" {
		settings.Timezone = ctx.Timezone
	}
	if err := ctx.Settings.Save(settings); err != nil {
		return fmt.Errorf("failed to save default settings: %w", err)
	}
	ctx.Println("✓ Default settings written")
	return nil
}
