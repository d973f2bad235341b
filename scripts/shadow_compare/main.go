// Command shadow_compare replays read-only timetable requests against both
// this service and the legacy backend it replaces, and reports response
// drift. Run it during the migration window before flipping traffic.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"reflect"
	"strings"
	"time"
)

type target struct {
	Method   string `json:"method"`
	Path     string `json:"path"`
	Critical bool   `json:"critical"`
}

// defaultTargets covers every read endpoint the grid front-end calls.
var defaultTargets = []target{
	{Method: http.MethodGet, Path: "/api/v1/classes?include=schedules", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/time-slots", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/rooms", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/teachers?include_workload=true", Critical: true},
	{Method: http.MethodGet, Path: "/api/v1/schedules", Critical: true},
	{Method: http.MethodGet, Path: "/health", Critical: false},
}

// volatileKeys never match between planes and are stripped before diffing.
var volatileKeys = map[string]struct{}{
	"created_at": {},
	"updated_at": {},
	"request_id": {},
	"meta":       {},
}

type result struct {
	Target       target
	GoStatus     int
	LegacyStatus int
	StatusMatch  bool
	BodyMatch    bool
	GoDuration   time.Duration
	LegacyDur    time.Duration
	Err          error
}

func main() {
	var (
		goBase      string
		legacyBase  string
		token       string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080", "timetable API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000", "legacy backend base URL")
	flag.StringVar(&token, "token", os.Getenv("SHADOW_COMPARE_TOKEN"), "bearer token for authenticated routes")
	flag.StringVar(&targetsPath, "targets", "", "optional JSON file overriding the built-in targets")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets := defaultTargets
	if targetsPath != "" {
		loaded, err := loadTargets(targetsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load targets: %v\n", err)
			os.Exit(2)
		}
		targets = loaded
	}

	client := &http.Client{Timeout: timeout}

	breaking := 0
	fmt.Println("Timetable Shadow Compare")
	fmt.Println("========================")
	for _, tgt := range targets {
		res := compare(client, goBase, legacyBase, token, tgt)
		report(res)
		if tgt.Critical && (res.Err != nil || !res.StatusMatch || !res.BodyMatch) {
			breaking++
		}
	}

	fmt.Printf("breaking diffs: %d\n", breaking)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg struct {
		Targets []target `json:"targets"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}

	return cfg.Targets, nil
}

func compare(client *http.Client, goBase, legacyBase, token string, tgt target) result {
	res := result{Target: tgt}

	goStatus, goBody, goDur, err := fetch(client, goBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("timetable api: %w", err)
		return res
	}
	legacyStatus, legacyBody, legacyDur, err := fetch(client, legacyBase, token, tgt)
	if err != nil {
		res.Err = fmt.Errorf("legacy backend: %w", err)
		return res
	}

	res.GoStatus = goStatus
	res.LegacyStatus = legacyStatus
	res.GoDuration = goDur
	res.LegacyDur = legacyDur
	res.StatusMatch = goStatus == legacyStatus
	res.BodyMatch = bodiesEqual(goBody, legacyBody)

	return res
}

func fetch(client *http.Client, base, token string, tgt target) (int, []byte, time.Duration, error) {
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req, err := http.NewRequest(strings.ToUpper(tgt.Method), strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return 0, nil, 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, 0, err
	}

	return resp.StatusCode, body, time.Since(start), nil
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)

	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for key := range volatileKeys {
			delete(val, key)
		}
		for k, child := range val {
			normalize(&child)
			val[k] = child
		}
	case []interface{}:
		for i, child := range val {
			normalize(&child)
			val[i] = child
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func report(res result) {
	status := "OK"
	switch {
	case res.Err != nil:
		status = "ERROR"
	case !res.StatusMatch || !res.BodyMatch:
		status = "DIFF"
	}

	fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
	if res.Err != nil {
		fmt.Printf("  error: %v\n", res.Err)
		return
	}
	fmt.Printf("  go: %d (%s) | legacy: %d (%s)\n", res.GoStatus, res.GoDuration, res.LegacyStatus, res.LegacyDur)
	fmt.Printf("  status match: %t | body match: %t | critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
}
