package viz

import (
	"fmt"
	"math"

	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/doesim/internal/dynamo"
)

const (
	plotHeight = 10
	plotWidth  = 80
)

// ChannelSummary is the range of one state channel over a trajectory.
type ChannelSummary struct {
	Index int
	Name  string
	Min   float64
	Max   float64
	Final float64
}

func channelName(names []string, i int) string {
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("x%d", i)
}

// PlotChannels draws one graph per channel. Channels outside the state
// are skipped. Non-finite samples are replaced by NaN, which asciigraph
// leaves blank.
func PlotChannels(res *dynamo.Result, channels []int, names []string) []string {
	if res.Len() == 0 {
		return nil
	}

	var graphs []string
	for _, ch := range channels {
		if ch < 0 || ch >= len(res.States[0]) {
			continue
		}
		data := dynamo.Channel(res.States, ch)
		for i, v := range data {
			if math.IsInf(v, 0) {
				data[i] = math.NaN()
			}
		}

		graphs = append(graphs, asciigraph.Plot(data,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption(fmt.Sprintf("%s vs time (0..%.2fs)", channelName(names, ch), res.Times[len(res.Times)-1])),
		))
	}
	return graphs
}

// Summarize reports min, max and final value of every channel.
func Summarize(res *dynamo.Result, names []string) []ChannelSummary {
	if res.Len() == 0 {
		return nil
	}

	dim := len(res.States[0])
	out := make([]ChannelSummary, dim)
	for ch := 0; ch < dim; ch++ {
		data := dynamo.Channel(res.States, ch)
		out[ch] = ChannelSummary{
			Index: ch,
			Name:  channelName(names, ch),
			Min:   floats.Min(data),
			Max:   floats.Max(data),
			Final: data[len(data)-1],
		}
	}
	return out
}
