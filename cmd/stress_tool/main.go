package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"mochi_forums/internal/domain/forum/repository"
	"mochi_forums/internal/domain/forum/service"
	"mochi_forums/internal/pkg/config"
	"mochi_forums/internal/pkg/notify"
	"mochi_forums/internal/pkg/request"
	"mochi_forums/internal/pkg/state"
	"mochi_forums/pkg/cache"
	"mochi_forums/pkg/logger"
	"mochi_forums/pkg/metrics"

	"github.com/spf13/cobra"
)

// 并发读取论坛数据，观察查询缓存对回源请求的合并效果
func main() {
	var (
		configPath string
		readers    int
		rounds     int
		forum      string
	)

	cmd := &cobra.Command{
		Use:          "stress_tool",
		Short:        "Concurrent read load against a forums server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if err := logger.Init(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
				return err
			}
			defer logger.Sync()

			// 压测时不限流
			cfg.API.RateLimit = 0
			collector := metrics.NewMetricsCollector()
			client, err := request.NewFromConfig(cfg.API, collector)
			if err != nil {
				return err
			}
			qc := cache.NewQueryCache(nil, cache.WithTTL(cfg.Cache.TTL), cache.WithMetrics(collector))
			svc := service.NewForumService(repository.NewForumRepository(client), qc, notify.Discard{}, state.NewStore())

			read := func(ctx context.Context) error {
				if forum != "" {
					_, err := svc.Info(ctx, forum)
					return err
				}
				_, err := svc.List(ctx, state.ViewAll)
				return err
			}

			report := runLoad(cmd.Context(), readers, rounds, read)
			backend, err := backendRequests(collector)
			if err != nil {
				return err
			}
			report.Backend = backend
			report.Print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "config file")
	cmd.Flags().IntVar(&readers, "readers", 1000, "concurrent readers per round")
	cmd.Flags().IntVar(&rounds, "rounds", 3, "number of rounds")
	cmd.Flags().StringVar(&forum, "forum", "", "read this forum's info instead of the forum list")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Report 压测结果
type Report struct {
	Total    int
	Success  int
	Failed   int
	Duration time.Duration
	Backend  int
}

// runLoad 每轮启动 readers 个并发读取，等待全部结束后进入下一轮
func runLoad(ctx context.Context, readers, rounds int, read func(ctx context.Context) error) Report {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	report := Report{}
	start := time.Now()

	for r := 0; r < rounds; r++ {
		for i := 0; i < readers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := read(ctx)
				mu.Lock()
				report.Total++
				if err != nil {
					report.Failed++
				} else {
					report.Success++
				}
				mu.Unlock()
			}()
		}
		wg.Wait()
	}

	report.Duration = time.Since(start)
	return report
}

// QPS 每秒读取数
func (r Report) QPS() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Total) / r.Duration.Seconds()
}

// Print 输出结果
func (r Report) Print(w io.Writer) {
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "duration:         %v\n", r.Duration)
	fmt.Fprintf(w, "reads:            %d\n", r.Total)
	fmt.Fprintf(w, "QPS:              %.2f\n", r.QPS())
	fmt.Fprintf(w, "succeeded:        %d\n", r.Success)
	fmt.Fprintf(w, "failed:           %d\n", r.Failed)
	fmt.Fprintf(w, "backend requests: %d\n", r.Backend)
	fmt.Fprintln(w, "--------------------------------------------------")
}

// backendRequests 从指标中汇总实际发出的 API 请求数
func backendRequests(collector *metrics.MetricsCollector) (int, error) {
	families, err := collector.Registry().Gather()
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, mf := range families {
		if mf.GetName() != "forums_api_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return int(total), nil
}
