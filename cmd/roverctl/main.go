// roverctl: Command-line control for rovers via the gateway API
//
// Usage:
//
//	roverctl list
//	roverctl move <rover-id> -dir forward -duration 2 -speed 50
//	roverctl sequence <rover-id> -file dance.yaml
//	roverctl status <rover-id> [-request]
//	roverctl stats
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/teslashibe/go-rover/internal/httpc"
	"github.com/teslashibe/go-rover/pkg/protocol"
)

var gatewayURL = flag.String("gateway", envOr("ROVER_GATEWAY_API", "http://localhost:8080"), "Gateway base URL")

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	var err error
	switch args[0] {
	case "list":
		err = cmdList()
	case "move":
		err = cmdMove(args[1:])
	case "sequence":
		err = cmdSequence(args[1:])
	case "status":
		err = cmdStatus(args[1:])
	case "stats":
		err = cmdStats()
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: roverctl [-gateway URL] <list|move|sequence|status|stats> [args]")
}

func cmdList() error {
	var result struct {
		Rovers []struct {
			ID       string               `json:"id"`
			LastSeen string               `json:"last_seen"`
			Status   *protocol.StatusData `json:"status"`
		} `json:"rovers"`
		Count int `json:"count"`
	}
	if err := getJSON("/api/rovers/", &result); err != nil {
		return err
	}

	if result.Count == 0 {
		fmt.Println("No rovers connected")
		return nil
	}
	for _, r := range result.Rovers {
		line := fmt.Sprintf("%-20s last seen %s", r.ID, r.LastSeen)
		if r.Status != nil {
			line += fmt.Sprintf("  [%s speed=%d battery=%d%%]", r.Status.Direction, r.Status.Speed, r.Status.Battery)
		}
		fmt.Println(line)
	}
	return nil
}

func cmdMove(args []string) error {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	dir := fs.String("dir", "forward", "Direction: forward, backward, left, right, stop")
	duration := fs.Float64("duration", 0, "Seconds to move (0 = until stopped)")
	speed := fs.Int("speed", 50, "Speed 0-100")

	roverID, err := parseTarget(fs, args)
	if err != nil {
		return err
	}

	body := map[string]interface{}{
		"direction": *dir,
		"duration":  *duration,
		"speed":     *speed,
	}
	if err := postJSON("/api/rovers/"+roverID+"/move", body, nil); err != nil {
		return err
	}
	fmt.Printf("Sent: %s %s for %.1fs at %d%%\n", roverID, *dir, *duration, *speed)
	return nil
}

// sequenceFile is the YAML layout for scripted moves.
type sequenceFile struct {
	Speed int `yaml:"speed"`
	Steps []struct {
		Direction string  `yaml:"direction"`
		Duration  float64 `yaml:"duration"`
	} `yaml:"steps"`
}

func cmdSequence(args []string) error {
	fs := flag.NewFlagSet("sequence", flag.ExitOnError)
	file := fs.String("file", "", "YAML sequence file")
	speed := fs.Int("speed", 0, "Speed override 0-100")

	roverID, err := parseTarget(fs, args)
	if err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("sequence requires -file")
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return fmt.Errorf("failed to read sequence file: %w", err)
	}

	var seq sequenceFile
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return fmt.Errorf("failed to parse sequence file: %w", err)
	}
	if len(seq.Steps) == 0 {
		return fmt.Errorf("sequence file has no steps")
	}

	steps := make([]protocol.SequenceStep, len(seq.Steps))
	for i, s := range seq.Steps {
		steps[i] = protocol.SequenceStep{Direction: s.Direction, Duration: s.Duration}
	}

	effSpeed := seq.Speed
	if *speed > 0 {
		effSpeed = *speed
	}

	body := map[string]interface{}{
		"sequence": steps,
		"speed":    effSpeed,
	}
	if err := postJSON("/api/rovers/"+roverID+"/sequence", body, nil); err != nil {
		return err
	}
	fmt.Printf("Sent: %d steps to %s at %d%%\n", len(steps), roverID, effSpeed)
	return nil
}

func cmdStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	request := fs.Bool("request", false, "Ask the rover for a fresh report first")

	roverID, err := parseTarget(fs, args)
	if err != nil {
		return err
	}

	if *request {
		if err := postJSON("/api/rovers/"+roverID+"/status", nil, nil); err != nil {
			return err
		}
	}

	var status protocol.StatusData
	if err := getJSON("/api/rovers/"+roverID+"/status", &status); err != nil {
		return err
	}

	moving := "stopped"
	if status.IsMoving {
		moving = "moving " + status.Direction
	}
	fmt.Printf("%s: %s, speed=%d, battery=%d%%\n", roverID, moving, status.Speed, status.Battery)
	return nil
}

func cmdStats() error {
	var stats map[string]interface{}
	if err := getJSON("/api/rovers/stats", &stats); err != nil {
		return err
	}
	for k, v := range stats {
		fmt.Printf("%-20s %v\n", k, v)
	}
	return nil
}

// parseTarget pulls the rover ID off the front of args and parses flags.
func parseTarget(fs *flag.FlagSet, args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("%s requires a rover ID", fs.Name())
	}
	roverID := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return "", err
	}
	return roverID, nil
}

func getJSON(path string, v interface{}) error {
	resp, err := httpc.Get(*gatewayURL + path)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, v)
}

func postJSON(path string, body, v interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}
	resp, err := httpc.Post(*gatewayURL+path, "application/json", payload)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp, v)
}

func decodeResponse(resp *http.Response, v interface{}) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("gateway: %s", apiErr.Error)
		}
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	if v == nil {
		return nil
	}
	return json.Unmarshal(data, v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
