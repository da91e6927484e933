package settings

import (
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
	"github.com/julianstephens/nudge/internal/cli/schedule"
	"github.com/julianstephens/nudge/internal/models"
	"github.com/julianstephens/nudge/internal/utils"
)

type SettingsShowCmd struct{}

func (c *SettingsShowCmd) Run(ctx *cli.Context) error {
	values := models.SettingsToMap(ctx.Settings.Get())

	ctx.Println("Current Settings:")
	for _, key := range models.SettingKeys() {
		ctx.Printf("  %-22s %s\n", key+":", values[key])
	}
	if ctx.Timezone != "" {
		ctx.Println(cli.MutedStyle.Render(fmt.Sprintf("  (timezone overridden by --timezone=%s)", ctx.Timezone)))
	}
	return nil
}

type SettingsSetCmd struct {
	Key   string `arg:"" help:"Setting key (see 'nudge settings show')."`
	Value string `arg:"" help:"New value."`
}

func (c *SettingsSetCmd) Run(ctx *cli.Context) error {
	settings := ctx.Settings.Get()
	if err := models.SetSetting(&settings, c.Key, c.Value); err != nil {
		return err
	}

	switch c.Key {
	case models.SettingTimezone:
		if !utils.ValidateTimezone(settings.Timezone) {
			return fmt.Errorf("invalid timezone: %s", settings.Timezone)
		}
	case models.SettingRefreshSpec, models.SettingDispatchSpec:
		if err := schedule.ValidateSpec(c.Value); err != nil {
			return err
		}
	}

	if err := ctx.Settings.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Printf("✓ %s = %s\n", c.Key, c.Value)

	switch c.Key {
	case models.SettingDayStartHour, models.SettingDayEndHour, models.SettingIntervalMinutes,
		models.SettingJitterMinutes, models.SettingNoRepeatDays, models.SettingTimezone:
		ctx.Println(cli.MutedStyle.Render("  Takes effect at the next plan. Run 'nudge refresh --force' to replan today."))
	}
	return nil
}
