package sub

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/config"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/edit"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/strbuf"
)

func action(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadCmd(cmd, version.AppRawName)
	if err != nil {
		return err
	}

	ops, err := parseOps(cmd)
	if err != nil {
		return err
	}
	if ops.Empty() {
		return errors.New("nothing to do: set --range, --insert or --match")
	}

	input, err := readInput(cmd)
	if err != nil {
		return err
	}

	b, err := strbuf.New(cfg.Buffer.Unit, strbuf.WithLimit(cfg.Buffer.Limit))
	if err != nil {
		return err
	}
	if err := b.Set(input); err != nil {
		return fmt.Errorf("load input: %w", err)
	}
	if err := edit.Apply(b, ops); err != nil {
		return fmt.Errorf("%s: %w", ops.Name(), err)
	}
	slog.Debug("Applied edit", "op", ops.Name(), "len", b.Len(), "total", b.Total())

	_, err = cmd.Root().Writer.Write(b.Bytes())

	return err
}

func parseOps(cmd *cli.Command) (edit.Ops, error) {
	ops := edit.Ops{
		Match:       cmd.String("match"),
		Replacement: cmd.String("replace"),
		Count:       cmd.Int("count"),
	}

	if s := cmd.String("range"); s != "" {
		span, err := edit.ParseSpan(s)
		if err != nil {
			return ops, err
		}
		ops.Range = span
	}
	if s := cmd.String("insert"); s != "" {
		ins, err := edit.ParseInsertion(s)
		if err != nil {
			return ops, err
		}
		ops.Insert = ins
	}

	return ops, nil
}

func readInput(cmd *cli.Command) ([]byte, error) {
	if path := cmd.String("file"); path != "" {
		return os.ReadFile(path) //nolint:gosec // path is supplied by the user
	}
	if cmd.Args().Present() {
		return []byte(strings.Join(cmd.Args().Slice(), " ")), nil
	}

	return io.ReadAll(cmd.Root().Reader)
}
