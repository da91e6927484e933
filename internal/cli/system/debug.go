package system

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/julianstephens/nudge/internal/cli"
)

type DebugCmd struct {
	Path *DebugPathCmd `cmd:"" help:"Show storage and data paths."`
	Dump *DebugDumpCmd `cmd:"" help:"Dump a stored record as JSON."`
}

type DebugPathCmd struct{}

func (cmd *DebugPathCmd) Run(ctx *cli.Context) error {
	output := map[string]string{
		"store":    ctx.Store.Path(),
		"data_dir": ctx.DataDir,
	}
	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(jsonBytes))
	return nil
}

type DebugDumpCmd struct {
	Key string `arg:"" enum:"prompts,rules,history,actions,settings,pending" help:"Record key (prompts, rules, history, actions, settings, pending)."`
}

func (cmd *DebugDumpCmd) Run(ctx *cli.Context) error {
	var raw json.RawMessage
	ok, err := ctx.Store.Load(cmd.Key, &raw)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", cmd.Key, err)
	}
	if !ok {
		return fmt.Errorf("no %s record stored", cmd.Key)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format %s: %w", cmd.Key, err)
	}
	ctx.Println(out.String())
	return nil
}
