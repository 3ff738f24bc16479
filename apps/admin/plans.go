package main

import (
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/trezcool/atlantis/core/catalog"
	"github.com/trezcool/atlantis/core/export"
)

var planExportHeaders = []string{"ID", "Name", "Category", "Sessions", "Duration", "Price", "Discount price", "Effective price"}

func (cli *commandLine) filterPlans(category string) []catalog.Plan {
	if category == "" {
		return cli.plans.All()
	}
	return cli.plans.ByCategory(category)
}

func (cli *commandLine) listPlans(category string) error {
	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	_, _ = tw.Write([]byte("ID\tNAME\tCATEGORY\tSESSIONS\tPRICE (" + cli.plans.Currency() + ")\n"))
	for _, p := range cli.filterPlans(category) {
		price := p.EffectivePrice().String()
		if !p.EffectivePrice().Equal(p.Price) {
			price += " (was " + p.Price.String() + ")"
		}
		_, _ = tw.Write([]byte(p.ID + "\t" + p.Name + "\t" + p.Category + "\t" + strconv.Itoa(p.Sessions) + "\t" + price + "\n"))
	}
	return tw.Flush()
}

func planRow(p catalog.Plan) []string {
	discount := ""
	if p.DiscountPrice != nil {
		discount = p.DiscountPrice.String()
	}
	return []string{
		p.ID, p.Name, p.Category, strconv.Itoa(p.Sessions), p.Duration,
		p.Price.String(), discount, p.EffectivePrice().String(),
	}
}

// exportPlans writes the catalog to dir and returns the file path.
func (cli *commandLine) exportPlans(dir string) (string, error) {
	plans := cli.plans.All()
	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		rows = append(rows, planRow(p))
	}
	if len(rows) == 0 {
		return "", export.ErrNoData
	}

	path := filepath.Join(dir, export.Filename("plans", cli.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "creating export file")
	}
	if err = export.WriteCSV(f, planExportHeaders, rows); err != nil {
		_ = f.Close()
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing export file")
	}
	_, _ = cli.out.Write([]byte("exported " + strconv.Itoa(len(rows)) + " plans to " + path + "\n"))
	return path, nil
}
