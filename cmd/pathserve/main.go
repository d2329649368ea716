package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/milk9111/terrainpath/config"
	"github.com/milk9111/terrainpath/planner"
	"github.com/milk9111/terrainpath/remote"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	specPath := flag.String("spec", "", "terrain spec YAML; empty uses the embedded default")
	flag.Parse()

	logger := log.Default()

	spec, err := config.Load(*specPath)
	if err != nil {
		log.Fatal(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	began := time.Now()
	p, err := planner.FromSpec(spec, planner.Config{Logger: logger, Registerer: reg})
	if err != nil {
		log.Fatal(err)
	}
	g := p.Grid()
	logger.Printf("pathserve: built %dx%d grid (%d blocked) in %s", g.Width, g.Length, g.BlockedCount(), time.Since(began))

	mux := http.NewServeMux()
	remote.NewHandler(p, remote.HandlerConfig{Logger: logger}).Routes(mux)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logger.Printf("pathserve: listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
