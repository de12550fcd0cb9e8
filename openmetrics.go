package carbonfootprint

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// InputsSource extracts footprint inputs from an incoming request.
type InputsSource interface {
	Inputs(r *http.Request) (Inputs, error)
}

// OpenMetricsHandler implements the http.Handler interface
type OpenMetricsHandler struct {
	defaultTimeout time.Duration
	source         InputsSource
	baseLabels     map[string]string
}

// NewOpenMetricsHandler create a new OpenMetricsHandler
func NewOpenMetricsHandler(source InputsSource, baseLabels map[string]string) *OpenMetricsHandler {
	return &OpenMetricsHandler{
		defaultTimeout: 10 * time.Second,
		source:         source,
		baseLabels:     baseLabels,
	}
}

// ServeHTTP implements the http.Handler interface. It computes the footprint of
// the request inputs and writes it in the OpenMetrics text format.
func (handler *OpenMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	inputs, err := handler.source.Inputs(r)
	if err != nil {
		decodeErr := new(DecodeErr)
		if errors.As(err, &decodeErr) {
			slog.Warn("failed to decode footprint inputs", "err", decodeErr, "source", decodeErr.Source)
		} else {
			slog.Warn("failed to decode footprint inputs", "err", err.Error())
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	metrics := make(chan *Metric)

	errg, errgctx := errgroup.WithContext(r.Context())
	errgctx, cancel := context.WithTimeout(errgctx, handler.defaultTimeout)
	defer cancel()

	errg.Go(func() error {
		defer close(metrics)
		for _, metric := range NewFootprintMetrics(Compute(inputs), handler.baseLabels) {
			select {
			case <-errgctx.Done():
				return nil
			case metrics <- metric:
			}
		}
		return nil
	})

	errg.Go(func() error {
		return writeMetrics(errgctx, w, metrics)
	})

	if err := errg.Wait(); err != nil {
		slog.Error("failed to write footprint metrics", "err", err.Error())
		return
	}

	slog.Debug("footprint metrics written", "duration_ms", time.Since(start).Milliseconds())
}

// WriteOpenMetrics writes every metric of the footprint on the writer.
func WriteOpenMetrics(w io.Writer, footprint Footprint, labels map[string]string) error {
	for _, metric := range NewFootprintMetrics(footprint, labels) {
		if err := writeMetric(w, metric); err != nil {
			return err
		}
	}
	return nil
}

// writeMetrics write all metrics sent over the channel and write them on the writer.
// Metrics labels are sorted lexicographically before being written.
func writeMetrics(ctx context.Context, w io.Writer, metrics chan *Metric) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case metric, ok := <-metrics:
			if !ok {
				return nil
			}

			if metric == nil {
				slog.Warn("discarding nil metric")
				continue
			}
			if err := writeMetric(w, metric); err != nil {
				return fmt.Errorf("failed to write metric on writer: %w", err)
			}
		}
	}
}

func writeMetric(w io.Writer, metric *Metric) error {
	metric = metric.SanitizeLabels()

	// sort labels in lexicographical order
	labels := make([]string, 0, len(metric.Labels))
	for labelName, labelValue := range metric.Labels {
		labels = append(labels, fmt.Sprintf(`%s="%s"`, labelName, labelValue))
	}
	slices.SortFunc(labels, strings.Compare)

	_, err := fmt.Fprintf(w, "%s{%s} %0.10f\n", metric.Name, strings.Join(labels, ","), metric.Value)
	if err != nil {
		return fmt.Errorf("writing metric %s failed: %w", metric.Name, err)
	}

	return nil
}

// Metric olds the name and value of a measurement in addition to its labels.
type Metric struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// AddLabel sets a label on a copy of the metric labels. Empty values are not
// added.
func (m *Metric) AddLabel(key, value string) *Metric {
	m.Labels = MergeLabels(m.Labels, map[string]string{key: value})
	return m
}

// SetLabels replaces the metric labels with a copy of l.
func (m *Metric) SetLabels(l map[string]string) *Metric {
	m.Labels = MergeLabels(l)
	return m
}

func (m *Metric) SanitizeLabels() *Metric {
	newLabels := make(map[string]string)
	invalidChars := []string{".", "/", "-", ":", ";"}
	for label, value := range m.Labels {
		for _, char := range invalidChars {
			label = strings.ReplaceAll(label, char, "_")
		}
		newLabels[label] = value
	}
	m.Labels = newLabels
	return m
}

// NewFootprintMetrics returns one metric per category followed by the totals.
func NewFootprintMetrics(footprint Footprint, labels map[string]string) []*Metric {
	metrics := make([]*Metric, 0, len(Categories())+2)
	for _, category := range Categories() {
		metrics = append(metrics, NewCategoryEmissionsMetric(footprint.Category(category)).
			SetLabels(labels).
			AddLabel("category", string(category)))
	}

	metrics = append(metrics,
		NewTotalEmissionsMetric(footprint.Total()).SetLabels(labels),
		NewTotalTonnesMetric(footprint.Total()).SetLabels(labels),
	)

	return metrics
}

func NewCategoryEmissionsMetric(value Emissions) *Metric {
	return &Metric{
		Name:  "estimated_emissions_kgCO2eq_year",
		Value: value.KgCO2eq(),
	}
}

func NewTotalEmissionsMetric(value Emissions) *Metric {
	return &Metric{
		Name:  "estimated_total_emissions_kgCO2eq_year",
		Value: value.KgCO2eq(),
	}
}

func NewTotalTonnesMetric(value Emissions) *Metric {
	return &Metric{
		Name:  "estimated_total_emissions_tCO2eq_year",
		Value: value.TCO2eq(),
	}
}
