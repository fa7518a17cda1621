package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/pacwrap/alpm-go/pkg/alpm"
	"github.com/pacwrap/alpm-go/pkg/alpm/alpmprom"
	"github.com/pacwrap/alpm-go/pkg/alpm/logging"
)

func newMetricsCommand(a *app) *cobra.Command {
	var namespace string
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Print database metrics in the Prometheus text format",
		Long: `Print database metrics in the Prometheus text exposition format, suitable
for the node_exporter textfile collector.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withHandle(cmd, func(h *alpm.Alpm) error {
				reg := prometheus.NewRegistry()
				collector := alpmprom.NewCollector(h, alpmprom.Config{
					Namespace: namespace,
					Logger:    logging.New(a.logger()),
				})
				if err := reg.Register(collector); err != nil {
					return fmt.Errorf("register collector: %w", err)
				}
				families, err := reg.Gather()
				if err != nil {
					return fmt.Errorf("gather metrics: %w", err)
				}
				enc := expfmt.NewEncoder(a.stdout, expfmt.NewFormat(expfmt.TypeTextPlain))
				for _, mf := range families {
					if err := enc.Encode(mf); err != nil {
						return fmt.Errorf("encode %s: %w", mf.GetName(), err)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&namespace, "namespace", "alpm", "metric name prefix")
	return cmd
}
