// Package viz renders experiment results for the terminal.
//
// Tables are aligned with text/tabwriter, trajectories are drawn with
// asciigraph and headings are styled with lipgloss:
//
//   - [WriteItems]: one row per run in presentation order
//   - [WriteRegression]: fitted coefficients against factor names
//   - [PlotChannels]: ascii plots of selected state channels
//   - [Summarize]: per-channel min, max and final values
package viz
