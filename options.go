package xldash

import "log/slog"

// Options holds configuration for the Builder.
type Options struct {
	layout    Layout
	bands     HealthBands
	logger    *slog.Logger
	listeners []StepListener

	completeChartColumns *bool
}

func defaultOptions() *Options {
	return &Options{
		layout: DefaultLayout(),
		bands:  DefaultHealthBands,
	}
}

// Option configures the Builder.
type Option func(*Options)

// WithLayout replaces the default layout.
func WithLayout(layout Layout) Option {
	return func(o *Options) { o.layout = layout }
}

// WithHealthBands replaces the default Strong/Moderate/At Risk bands.
func WithHealthBands(bands HealthBands) Option {
	return func(o *Options) { o.bands = bands }
}

// WithCompleteChartColumns writes margin formulas for every product column
// of the chart-data table instead of the first two.
func WithCompleteChartColumns(complete bool) Option {
	return func(o *Options) { o.completeChartColumns = &complete }
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) { o.logger = logger }
}

// WithStepListener adds a listener notified around each pipeline step.
func WithStepListener(listener StepListener) Option {
	return func(o *Options) { o.listeners = append(o.listeners, listener) }
}
