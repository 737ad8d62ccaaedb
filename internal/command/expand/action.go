package expand

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/lwmacct/251207-go-pkg-strbuf/internal/config"
	"github.com/lwmacct/251207-go-pkg-strbuf/internal/version"
	"github.com/lwmacct/251207-go-pkg-strbuf/pkg/templexp"
)

func action(_ context.Context, cmd *cli.Command) error {
	cfg, err := config.LoadCmd(cmd, version.AppRawName)
	if err != nil {
		return err
	}

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return errors.New("missing TEMPLATE argument")
	}

	tpl, err := templexp.CompileString(args[0], cfg.Template.MaxSlot,
		templexp.WithUnit(cfg.Template.Unit),
		templexp.WithLimit(cfg.Template.Limit),
	)
	if err != nil {
		return err
	}
	slog.Debug("Compiled template", "segments", len(tpl.Segments()), "literal", tpl.Len(), "maxSlot", tpl.MaxSlot())

	w := cmd.Root().Writer
	if cmd.Bool("segments") {
		for i, seg := range tpl.Segments() {
			_, _ = fmt.Fprintf(w, "%d\t$%d\t%d\n", i, seg.Slot, seg.Distance)
		}
	}
	if cmd.Bool("literal") {
		_, _ = fmt.Fprintln(w, tpl.String())

		return nil
	}

	out, err := tpl.ExpandString(args[1:]...)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, out)

	return nil
}
