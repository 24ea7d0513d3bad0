package tools

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/flemzord/gatehouse/internal/tool"
)

const systemInfoSchema = `{
	"type": "object",
	"properties": {
		"include": {
			"type": "array",
			"items": {
				"type": "string",
				"enum": ["memory", "cpu", "disk", "host", "runtime"]
			},
			"uniqueItems": true
		}
	},
	"additionalProperties": false
}`

func systemInfoDefinition() tool.Definition {
	return tool.Definition{
		Name:        "system-info",
		Description: "Reports host memory, CPU, disk, and runtime metrics. Read-only.",
		Intent:      "inspect the host without modifying it",
		InputSchema: json.RawMessage(systemInfoSchema),
		Safety:      tool.SafetySafe,
	}
}

type memoryInfo struct {
	TotalBytes     uint64 `json:"totalBytes"`
	UsedBytes      uint64 `json:"usedBytes"`
	AvailableBytes uint64 `json:"availableBytes"`
	Source         string `json:"source"`
}

type cpuInfo struct {
	Cores   int     `json:"cores"`
	Load1m  float64 `json:"load1m"`
	Load5m  float64 `json:"load5m"`
	Load15m float64 `json:"load15m"`
}

type diskInfo struct {
	Path       string `json:"path"`
	TotalBytes uint64 `json:"totalBytes"`
	FreeBytes  uint64 `json:"freeBytes"`
	UsedBytes  uint64 `json:"usedBytes"`
}

type hostInfo struct {
	Hostname string `json:"hostname"`
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	PID      int    `json:"pid"`
}

type runtimeInfo struct {
	GoVersion  string `json:"goVersion"`
	Goroutines int    `json:"goroutines"`
	UptimeMs   int64  `json:"uptimeMs"`
}

var processStart = time.Now()

func systemInfoExecutor() tool.Executor {
	return func(_ context.Context, args json.RawMessage, _ tool.ExecContext) (tool.Result, error) {
		var in struct {
			Include []string `json:"include"`
		}
		if len(args) > 0 {
			if err := json.Unmarshal(args, &in); err != nil {
				return tool.Result{}, err
			}
		}

		want := func(section string) bool {
			if len(in.Include) == 0 {
				return true
			}
			for _, s := range in.Include {
				if s == section {
					return true
				}
			}
			return false
		}

		report := map[string]any{}
		if want("memory") {
			report["memory"] = collectMemory()
		}
		if want("cpu") {
			report["cpu"] = collectCPU()
		}
		if want("disk") {
			report["disk"] = collectDisk("/")
		}
		if want("host") {
			hostname, _ := os.Hostname()
			report["host"] = hostInfo{
				Hostname: hostname,
				OS:       runtime.GOOS,
				Arch:     runtime.GOARCH,
				PID:      os.Getpid(),
			}
		}
		if want("runtime") {
			report["runtime"] = runtimeInfo{
				GoVersion:  runtime.Version(),
				Goroutines: runtime.NumGoroutine(),
				UptimeMs:   time.Since(processStart).Milliseconds(),
			}
		}
		return tool.Result{Success: true, Data: report}, nil
	}
}

// collectMemory prefers /proc/meminfo and falls back to Go heap stats on
// hosts without procfs. Used never exceeds total.
func collectMemory() memoryInfo {
	if info, ok := readMeminfo("/proc/meminfo"); ok {
		return info
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return memoryInfo{
		TotalBytes: ms.Sys,
		UsedBytes:  min(ms.HeapInuse, ms.Sys),
		Source:     "go-runtime",
	}
}

func readMeminfo(path string) (memoryInfo, bool) {
	f, err := os.Open(path)
	if err != nil {
		return memoryInfo{}, false
	}
	defer f.Close()

	var totalKB, availKB uint64
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		v, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			totalKB = v
		case "MemAvailable:":
			availKB = v
		}
	}
	if totalKB == 0 {
		return memoryInfo{}, false
	}
	if availKB > totalKB {
		availKB = totalKB
	}
	return memoryInfo{
		TotalBytes:     totalKB * 1024,
		UsedBytes:      (totalKB - availKB) * 1024,
		AvailableBytes: availKB * 1024,
		Source:         "procfs",
	}, true
}

func collectCPU() cpuInfo {
	info := cpuInfo{Cores: runtime.NumCPU()}
	data, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return info
	}
	fields := strings.Fields(string(data))
	if len(fields) >= 3 {
		info.Load1m, _ = strconv.ParseFloat(fields[0], 64)
		info.Load5m, _ = strconv.ParseFloat(fields[1], 64)
		info.Load15m, _ = strconv.ParseFloat(fields[2], 64)
	}
	return info
}

func collectDisk(path string) diskInfo {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return diskInfo{Path: path}
	}
	total := st.Blocks * uint64(st.Bsize)
	free := st.Bavail * uint64(st.Bsize)
	if free > total {
		free = total
	}
	return diskInfo{
		Path:       path,
		TotalBytes: total,
		FreeBytes:  free,
		UsedBytes:  total - free,
	}
}
