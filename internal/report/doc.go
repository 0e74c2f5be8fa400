// Package report renders clustering results: PNG scatter plots through
// gonum/plot and an interactive HTML scatter chart through go-echarts,
// optionally served over HTTP.
package report
