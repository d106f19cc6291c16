package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"glance/internal/media"
)

var titleCaser = cases.Title(language.English)

func titleCase(value string) string {
	return titleCaser.String(value)
}

func renderResultsTable(results []media.ItemResult) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Source", "Status", "Description"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 40},
		{Number: 4, WidthMax: 80},
	})
	for i, result := range results {
		status := "OK"
		if result.IsError {
			status = "Error"
		}
		tw.AppendRow(table.Row{i + 1, result.SourceLabel, status, result.Text})
	}
	return tw.Render()
}
