// Command clayctl is a local operator tool for the Clay codec: encode a
// file into k+m chunks in the local store, decode a stripe back out,
// or repair a single lost chunk from its surviving helpers.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spool-labs/clay/pkg/clay"
	"github.com/spool-labs/clay/pkg/config"
	"github.com/spool-labs/clay/pkg/metrics"
	"github.com/spool-labs/clay/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: clayctl <encode|decode|repair> [-config file] [flags]")
	}
	cmd, args := os.Args[1], os.Args[2:]

	switch cmd {
	case "encode":
		runEncode(args)
	case "decode":
		runDecode(args)
	case "repair":
		runRepair(args)
	default:
		log.Fatalf("unknown command %q; must be encode, decode, or repair", cmd)
	}
}

func profileFromConfig(cfg *config.Config) clay.Profile {
	p := make(clay.Profile, len(cfg.Codec))
	for k, v := range cfg.Codec {
		p[k] = v
	}
	return p
}

// bootstrap loads config, starts the metrics endpoint, and constructs
// the codec instance and local store every subcommand needs.
func bootstrap(configPath string) (*clay.Instance, *store.Store) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config.Load: %v", err)
	}

	metrics.Register(prometheus.DefaultRegisterer)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.MetricsPort)
		http.Handle("/metrics", promhttp.Handler())
		log.Printf("clay metrics on %s/metrics", addr)
		log.Println(http.ListenAndServe(addr, nil))
	}()

	instance, err := clay.Init(profileFromConfig(cfg))
	if err != nil {
		log.Fatalf("clay.Init: %v", err)
	}
	st, err := store.Open(cfg.Storage.Datadir, cfg.Storage.DB, cfg.Storage.FlushInterval)
	if err != nil {
		log.Fatalf("store.Open: %v", err)
	}
	return instance, st
}

func runEncode(args []string) {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	file := fs.String("file", "", "path to the input file")
	id := fs.String("id", "", "object id to store the encoded chunks under")
	fs.Parse(args)
	if *file == "" || *id == "" {
		log.Fatal("encode: -file and -id are required")
	}
	in, st := bootstrap(*configPath)
	defer st.Close()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("ReadFile: %v", err)
	}

	unit := in.Params.K * in.Params.Alpha
	padded := len(data)
	if r := padded % unit; r != 0 {
		padded += unit - r
	}
	buf := make([]byte, padded)
	copy(buf, data)

	timer := prometheus.NewTimer(metrics.EncodeLatency)
	chunks, err := in.Encode(buf)
	timer.ObserveDuration()
	metrics.EncodeTotal.Inc()
	if err != nil {
		log.Fatalf("Encode: %v", err)
	}

	if err := st.PutLength(*id, len(data)); err != nil {
		log.Fatalf("PutLength: %v", err)
	}
	for i, c := range chunks {
		if err := st.PutChunk(*id, i, c); err != nil {
			log.Fatalf("PutChunk %d: %v", i, err)
		}
	}
	fmt.Printf("encoded %q into %d chunks (k=%d m=%d)\n", *id, len(chunks), in.Params.K, in.Params.M)
}

func runDecode(args []string) {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	id := fs.String("id", "", "object id to decode")
	out := fs.String("out", "", "path to write the reconstructed file")
	fs.Parse(args)
	if *id == "" || *out == "" {
		log.Fatal("decode: -id and -out are required")
	}
	in, st := bootstrap(*configPath)
	defer st.Close()

	chunks := make(map[clay.UserIndex][]byte)
	for i := 0; i < in.Params.K+in.Params.M; i++ {
		buf, err := st.GetChunk(*id, i)
		if err != nil {
			continue
		}
		chunks[clay.UserIndex(i)] = buf
	}

	timer := prometheus.NewTimer(metrics.DecodeLatency)
	data, err := in.DecodeConcat(chunks)
	timer.ObserveDuration()
	metrics.DecodeTotal.Inc()
	if err != nil {
		if cerr, ok := err.(*clay.Error); ok && cerr.Kind == clay.InsufficientShares {
			metrics.DecodeInsufficientShares.Inc()
		}
		log.Fatalf("DecodeConcat: %v", err)
	}

	n, err := st.GetLength(*id)
	if err == nil && n <= len(data) {
		data = data[:n]
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		log.Fatalf("WriteFile: %v", err)
	}
	fmt.Printf("decoded %q from %d surviving chunks -> %q\n", *id, len(chunks), *out)
}

func runRepair(args []string) {
	fs := flag.NewFlagSet("repair", flag.ExitOnError)
	configPath := fs.String("config", "", "path to a YAML config file")
	id := fs.String("id", "", "object id to repair")
	lost := fs.Int("lost", -1, "user chunk index to repair")
	fs.Parse(args)
	if *id == "" || *lost < 0 {
		log.Fatal("repair: -id and -lost are required")
	}
	in, st := bootstrap(*configPath)
	defer st.Close()
	lostIdx := clay.UserIndex(*lost)

	required := in.RequiredRepairSubChunks(lostIdx, nil)
	if len(required) == 0 {
		metrics.RepairFallbackTotal.Inc()
		log.Fatal("repair: no helper set found for the requested profile/lost index")
	}
	metrics.RepairFastPathTotal.Inc()

	var chunkSize, bytesRead int
	helperData := make(map[clay.UserIndex]map[int][]byte, len(required))
	for u, planes := range required {
		buf, err := st.GetChunk(*id, int(u))
		if err != nil {
			log.Fatalf("GetChunk helper %d: %v", u, err)
		}
		chunkSize = len(buf)
		subSize := chunkSize / in.Params.Alpha
		byPlane := make(map[int][]byte, len(planes))
		for _, z := range planes {
			byPlane[z] = buf[z*subSize : (z+1)*subSize]
			bytesRead += subSize
		}
		helperData[u] = byPlane
	}

	timer := prometheus.NewTimer(metrics.RepairLatency)
	repaired, err := in.RepairOne(lostIdx, nil, helperData, chunkSize)
	timer.ObserveDuration()
	metrics.RepairTotal.Inc()
	metrics.RepairBytesRead.Add(float64(bytesRead))
	if err != nil {
		log.Fatalf("RepairOne: %v", err)
	}

	if err := st.PutChunk(*id, *lost, repaired); err != nil {
		log.Fatalf("PutChunk: %v", err)
	}
	fmt.Printf("repaired %q chunk %d using %d helpers, %d bytes read\n", *id, *lost, len(helperData), bytesRead)
}
