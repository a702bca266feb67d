package main

import (
	"fmt"
	"sort"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"github.com/hprofkit/hprofctl/internal/hprof/heap"
	"github.com/hprofkit/hprofctl/internal/hprof/model"
	"github.com/hprofkit/hprofctl/utils"
)

const topNClasses = 10

type classTotal struct {
	name      string
	instances int64
	bytes     int64
}

// renderReport prints the counter summary and a bar chart of the heaviest
// classes by retained instance bytes (the CLI-side analogue of the
// original's class histogram view; see SPEC_FULL.md §3's ntcharts row).
func renderReport(h *heap.Heap) {
	fmt.Println(utils.TitleStyle.Render("HPROF Ingestion Summary"))
	fmt.Println(utils.FormatKeyValue("Format", h.Header.Format, 18))
	fmt.Println(utils.FormatKeyValue("ID size", fmt.Sprintf("%d bytes", h.Header.IDSize), 18))
	fmt.Println(utils.FormatKeyValue("Classes loaded", fmt.Sprintf("%d", len(h.ClassData)), 18))
	fmt.Println(utils.FormatKeyValue("Strings", fmt.Sprintf("%d", len(h.Utf8Strings)), 18))
	fmt.Println(utils.FormatKeyValue("Instances", fmt.Sprintf("%d", len(h.InstancesPool)), 18))
	fmt.Println(utils.FormatKeyValue("Heap dump frames", fmt.Sprintf("%d", h.Counters.HeapDumpCount+h.Counters.HeapDumpSegmentCount), 18))
	fmt.Println()

	totals := classByteTotals(h)
	if len(totals) == 0 {
		return
	}

	fmt.Println(utils.TitleStyle.Render(fmt.Sprintf("Top %d classes by retained bytes", min(topNClasses, len(totals)))))
	fmt.Println(renderClassBarChart(totals))
}

// classByteTotals walks the materialized instance pool once, accumulating
// per-class instance counts and an approximate retained-size total (the sum
// of each instance's DataSize, i.e. its raw field or element bytes; object
// headers are not counted), and returns the topNClasses largest.
func classByteTotals(h *heap.Heap) []classTotal {
	byClass := make(map[model.ID]*classTotal)

	for _, inst := range h.InstancesPool {
		ct, ok := byClass[inst.ClassObjectID]
		if !ok {
			ct = &classTotal{name: className(h, inst.ClassObjectID)}
			byClass[inst.ClassObjectID] = ct
		}
		ct.instances++
		ct.bytes += int64(inst.DataSize)
	}

	out := make([]classTotal, 0, len(byClass))
	for _, ct := range byClass {
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].bytes > out[j].bytes })
	if len(out) > topNClasses {
		out = out[:topNClasses]
	}
	return out
}

func className(h *heap.Heap, classID model.ID) string {
	if lc, ok := h.ClassData[classID]; ok {
		if name, ok := h.Utf8Strings[lc.ClassNameID]; ok {
			return name
		}
	}
	return fmt.Sprintf("0x%x", uint64(classID))
}

// renderClassBarChart draws a horizontal bar chart over the supplied
// totals. ntcharts' barchart expects one BarData per category with a
// single value; colors cycle through the teacher's info/good/warning palette.
func renderClassBarChart(totals []classTotal) string {
	colors := []lipgloss.Color{utils.InfoColor, utils.GoodColor, utils.WarningColor}

	bars := make([]barchart.BarData, len(totals))
	for i, ct := range totals {
		style := lipgloss.NewStyle().Foreground(colors[i%len(colors)])
		bars[i] = barchart.BarData{
			Label: utils.TruncateString(ct.name, 28),
			Values: []barchart.BarValue{
				{
					Name:  utils.MemorySize(ct.bytes).String(),
					Value: float64(ct.bytes),
					Style: style,
				},
			},
		}
	}

	chart := barchart.New(60, 20, barchart.WithHorizontalBars())
	chart.PushAll(bars)
	chart.Draw()
	return chart.View()
}
