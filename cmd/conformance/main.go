// Command conformance is a testee for the protobuf conformance runner. It
// reads length-prefixed ConformanceRequest messages on stdin and answers on
// stdout.
//
// Schemas are configured like the proto3json CLI: PROTO3JSON_PROTO_PATH
// names the directories holding the test protos and PROTO3JSON_PROTO_FILES
// the files to load (google/protobuf/test_messages_proto3.proto when
// unset).
package main

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/anirudhraja/proto3json"
)

const defaultTestProto = "google/protobuf/test_messages_proto3.proto"

func main() {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	logger = level.NewFilter(logger, level.AllowInfo())

	cfg, err := proto3json.LoadConfig("")
	if err != nil {
		level.Error(logger).Log("msg", "invalid configuration", "err", err)
		os.Exit(1)
	}
	if len(cfg.ProtoPaths) == 0 {
		cfg.ProtoPaths = []string{"conformance/protos"}
	}
	if len(cfg.ProtoFiles) == 0 {
		cfg.ProtoFiles = []string{defaultTestProto}
	}

	p, err := proto3json.New(cfg, proto3json.WithLogger(logger))
	if err != nil {
		level.Error(logger).Log("msg", "failed to load schema", "err", err)
		os.Exit(1)
	}
	h, err := NewHarness(p)
	if err != nil {
		level.Error(logger).Log("msg", "failed to start harness", "err", err)
		os.Exit(1)
	}

	totalRuns := 0
	for {
		done, err := h.ServeConformanceRequest(os.Stdin, os.Stdout)
		if err != nil {
			level.Error(logger).Log("msg", "fatal error", "err", err)
			os.Exit(1)
		}
		if done {
			break
		}
		totalRuns++
	}
	level.Info(logger).Log("msg", "received EOF", "tests", totalRuns)
}
