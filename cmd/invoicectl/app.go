package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/smallbiznis/invoicekit/internal/invoice/domain"
	"github.com/urfave/cli/v2"
)

func newApp(open opener) *cli.App {
	run := func(fn func(c *cli.Context, docs domain.Service, rendering domain.RenderingService) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			s, stop, err := open(c.Context)
			if err != nil {
				return err
			}
			defer stop()

			docs, rendering := s.documents(c.Bool("bill"))
			return fn(c, docs, rendering)
		}
	}

	return &cli.App{
		Name:  "invoicectl",
		Usage: "inspect and maintain invoices and bills",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "bill", Usage: "operate on bills instead of invoices"},
		},
		Commands: []*cli.Command{
			{
				Name:      "show",
				Usage:     "print a document and its lines",
				ArgsUsage: "<reference>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "include-deleted"},
				},
				Action: run(showDocument),
			},
			{
				Name:  "list",
				Usage: "list documents",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "status"},
					&cli.StringFlag{Name: "related-type"},
					&cli.StringFlag{Name: "related-id"},
					&cli.IntFlag{Name: "page-size"},
					&cli.StringFlag{Name: "page-token"},
					&cli.BoolFlag{Name: "include-deleted"},
				},
				Action: run(listDocuments),
			},
			{
				Name:      "recalculate",
				Usage:     "rebuild a document's totals from its lines",
				ArgsUsage: "<reference>",
				Action:    run(recalculateDocument),
			},
			{
				Name:      "pdf",
				Usage:     "export a document as PDF",
				ArgsUsage: "<reference>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file, defaults to <reference>.pdf"},
					&cli.StringFlag{Name: "title"},
				},
				Action: run(exportPDF),
			},
		},
	}
}

func referenceArg(c *cli.Context) (string, error) {
	ref := strings.TrimSpace(c.Args().First())
	if ref == "" {
		return "", errors.New("missing <reference> argument")
	}
	return ref, nil
}

func showDocument(c *cli.Context, docs domain.Service, _ domain.RenderingService) error {
	ref, err := referenceArg(c)
	if err != nil {
		return err
	}

	var opts []domain.FindOption
	if c.Bool("include-deleted") {
		opts = append(opts, domain.WithTrashed())
	}
	doc, err := docs.FindByReferenceOrFail(c.Context, ref, opts...)
	if err != nil {
		return err
	}
	return printJSON(c, doc)
}

func listDocuments(c *cli.Context, docs domain.Service, _ domain.RenderingService) error {
	resp, err := docs.List(c.Context, domain.ListRequest{
		Related:        domain.NewRelatedRef(c.String("related-type"), c.String("related-id")),
		Status:         c.String("status"),
		IncludeDeleted: c.Bool("include-deleted"),
		PageToken:      c.String("page-token"),
		PageSize:       c.Int("page-size"),
	})
	if err != nil {
		return err
	}
	return printJSON(c, resp)
}

func recalculateDocument(c *cli.Context, docs domain.Service, _ domain.RenderingService) error {
	ref, err := referenceArg(c)
	if err != nil {
		return err
	}

	doc, err := docs.FindByReferenceOrFail(c.Context, ref)
	if err != nil {
		return err
	}
	doc, err = docs.Recalculate(c.Context, doc.ID)
	if err != nil {
		return err
	}
	return printJSON(c, doc.Totals())
}

func exportPDF(c *cli.Context, docs domain.Service, rendering domain.RenderingService) error {
	ref, err := referenceArg(c)
	if err != nil {
		return err
	}

	doc, err := docs.FindByReferenceOrFail(c.Context, ref)
	if err != nil {
		return err
	}
	extra := map[string]any{}
	if title := strings.TrimSpace(c.String("title")); title != "" {
		extra["title"] = title
	}
	dl, err := rendering.Download(c.Context, doc.ID, extra)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		out = dl.Filename
	}
	if err := os.WriteFile(out, dl.Body, 0o644); err != nil {
		return err
	}
	_, err = fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", out, len(dl.Body))
	return err
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
