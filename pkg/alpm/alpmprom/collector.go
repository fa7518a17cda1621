// Package alpmprom exposes the state of an alpm handle as Prometheus metrics.
package alpmprom

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pacwrap/alpm-go/pkg/alpm"
	"github.com/pacwrap/alpm-go/pkg/alpm/lockwait"
	"github.com/pacwrap/alpm-go/pkg/alpm/logging"
)

const localDB = "local"

// Config configures a Collector.
type Config struct {
	Namespace string
	Logger    logging.Logger
}

// Collector reads database state from the handle on every scrape. It holds
// no package views between scrapes.
type Collector struct {
	a      *alpm.Alpm
	logger logging.Logger

	info        *prometheus.Desc
	packages    *prometheus.Desc
	groups      *prometheus.Desc
	servers     *prometheus.Desc
	valid       *prometheus.Desc
	installed   *prometheus.Desc
	isize       *prometheus.Desc
	locked      *prometheus.Desc
	scrapeError prometheus.Counter
}

// NewCollector returns a collector over a. Namespace defaults to "alpm".
func NewCollector(a *alpm.Alpm, cfg Config) *Collector {
	ns := cfg.Namespace
	if ns == "" {
		ns = "alpm"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Collector{
		a:      a,
		logger: logger,
		info: prometheus.NewDesc(prometheus.BuildFQName(ns, "", "info"),
			"libalpm version in use; native is false for the built-in emulation",
			[]string{"version", "native"}, nil),
		packages: prometheus.NewDesc(prometheus.BuildFQName(ns, "db", "packages"),
			"Number of packages in a database",
			[]string{"db"}, nil),
		groups: prometheus.NewDesc(prometheus.BuildFQName(ns, "db", "groups"),
			"Number of package groups in a database",
			[]string{"db"}, nil),
		servers: prometheus.NewDesc(prometheus.BuildFQName(ns, "db", "servers"),
			"Number of servers configured for a sync database",
			[]string{"db"}, nil),
		valid: prometheus.NewDesc(prometheus.BuildFQName(ns, "db", "valid"),
			"Whether a database exists and passes signature checks (1) or not (0)",
			[]string{"db"}, nil),
		installed: prometheus.NewDesc(prometheus.BuildFQName(ns, "local", "packages"),
			"Installed packages by install reason",
			[]string{"reason"}, nil),
		isize: prometheus.NewDesc(prometheus.BuildFQName(ns, "local", "installed_size_bytes"),
			"Sum of the installed sizes of all installed packages", nil, nil),
		locked: prometheus.NewDesc(prometheus.BuildFQName(ns, "", "database_locked"),
			"Whether the database lock file is present",
			nil, nil),
		scrapeError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "scrape_errors_total",
			Help:      "Total number of errors while reading the handle",
		}),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.info
	ch <- c.packages
	ch <- c.groups
	ch <- c.servers
	ch <- c.valid
	ch <- c.installed
	ch <- c.isize
	ch <- c.locked
	c.scrapeError.Describe(ch)
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx := context.Background()
	ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1,
		alpm.Version(), strconv.FormatBool(alpm.Native()))

	if c.a.Released() {
		c.scrapeError.Inc()
		c.scrapeError.Collect(ch)
		return
	}

	if held, err := lockwait.Held(c.a.Lockfile()); err != nil {
		c.fail(ctx, "lock state", err)
	} else {
		ch <- prometheus.MustNewConstMetric(c.locked, prometheus.GaugeValue, boolValue(held))
	}

	local := c.a.LocalDB()
	c.collectDB(ctx, ch, localDB, local)
	c.collectLocal(ctx, ch, local)
	for db := range c.a.SyncDBs().All() {
		name := db.Name()
		c.collectDB(ctx, ch, name, db)
		ch <- prometheus.MustNewConstMetric(c.servers, prometheus.GaugeValue, float64(db.Servers().Len()), name)
	}

	c.scrapeError.Collect(ch)
}

func (c *Collector) collectDB(ctx context.Context, ch chan<- prometheus.Metric, name string, db alpm.Db) {
	err := db.IsValid()
	ch <- prometheus.MustNewConstMetric(c.valid, prometheus.GaugeValue, boolValue(err == nil), name)
	if err != nil {
		c.logger.Debug(ctx, "database not valid", "db", name, "error", err)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.packages, prometheus.GaugeValue, float64(db.Pkgs().Len()), name)
	ch <- prometheus.MustNewConstMetric(c.groups, prometheus.GaugeValue, float64(db.Groups().Len()), name)
}

func (c *Collector) collectLocal(ctx context.Context, ch chan<- prometheus.Metric, db alpm.Db) {
	counts := map[alpm.PackageReason]int{alpm.ReasonExplicit: 0, alpm.ReasonDepend: 0}
	var size int64
	for p := range db.Pkgs().All() {
		size += p.ISize()
		reason, err := p.Reason()
		if err != nil {
			c.fail(ctx, "install reason of "+p.Name(), err)
			continue
		}
		counts[reason]++
	}
	for reason, n := range counts {
		ch <- prometheus.MustNewConstMetric(c.installed, prometheus.GaugeValue, float64(n), reason.String())
	}
	ch <- prometheus.MustNewConstMetric(c.isize, prometheus.GaugeValue, float64(size))
}

func (c *Collector) fail(ctx context.Context, what string, err error) {
	c.scrapeError.Inc()
	c.logger.Warn(ctx, "metrics scrape", "reading", what, "error", err)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
