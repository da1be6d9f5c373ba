package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"signage-player/internal/config"
	"signage-player/internal/fetch"
	"signage-player/internal/heartbeat"
	"signage-player/internal/render"
	"signage-player/internal/rotation"
	"signage-player/internal/snapshot"
	"signage-player/internal/transition"
)

type slotReport struct {
	Index      int    `json:"index"`
	TemplateID string `json:"template_id"`
	Name       string `json:"name,omitempty"`
	Mode       string `json:"mode"`
	Duration   string `json:"duration"`
	Effect     string `json:"effect"`
	Transition string `json:"transition"`
	Error      string `json:"error,omitempty"`
}

type report struct {
	Token     string       `json:"token"`
	Screen    string       `json:"screen"`
	Business  string       `json:"business_name,omitempty"`
	Mode      string       `json:"mode"`
	Menus     int          `json:"menus"`
	Slots     []slotReport `json:"slots"`
	Admission string       `json:"admission,omitempty"`
}

func main() {
	token := flag.String("token", "", "display token to probe")
	beat := flag.Bool("heartbeat", false, "send one heartbeat and report the verdict")
	asJSON := flag.Bool("json", false, "print the report as JSON")
	flag.Parse()

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Printf("failed to load .env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if *token == "" {
		log.Fatal("token is required")
	}

	client := fetch.NewClient(fetch.Config{BaseURL: cfg.BackendURL, Timeout: cfg.RequestTimeout(), UserAgent: "signage-probe"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	out, err := probe(ctx, snapshot.NewLoader(client), *token, cfg.Transition())
	if errors.Is(err, snapshot.ErrScreenNotFound) {
		log.Fatalf("screen not found token=%s", *token)
	}
	if err != nil {
		log.Fatalf("probe failed: %v", err)
	}
	if *beat {
		out.Admission = sendHeartbeat(ctx, client, *token).String()
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	fmt.Printf("token=%s screen=%q business=%q mode=%s menus=%d slots=%d\n", out.Token, out.Screen, out.Business, out.Mode, out.Menus, len(out.Slots))
	for _, slot := range out.Slots {
		if slot.Error != "" {
			fmt.Printf("  slot=%d template=%s error=%s\n", slot.Index, slot.TemplateID, slot.Error)
			continue
		}
		fmt.Printf("  slot=%d template=%s mode=%s duration=%s effect=%s transition=%s\n",
			slot.Index, slot.TemplateID, slot.Mode, slot.Duration, slot.Effect, slot.Transition)
	}
	if out.Admission != "" {
		fmt.Printf("admission=%s\n", out.Admission)
	}
}

func probe(ctx context.Context, loader *snapshot.Loader, token string, transitionTime time.Duration) (report, error) {
	first, err := loader.Load(ctx, token, snapshot.NoIndex)
	if err != nil {
		return report{}, err
	}
	out := report{
		Token:    token,
		Business: first.BusinessName(),
		Mode:     render.Select(first).String(),
		Menus:    len(first.Menus),
	}
	if first.Screen != nil {
		out.Screen = first.Screen.Name
	}
	settings := rotation.TransitionSettings{Duration: transitionTime}
	for i := 0; i < first.SlotCount(); i++ {
		slot, _ := first.Slot(i)
		entry := slotReport{Index: i, TemplateID: slot.TemplateID, Name: slot.TemplateName}
		snap, err := loader.Load(ctx, token, i)
		if err != nil {
			entry.Error = err.Error()
			out.Slots = append(out.Slots, entry)
			continue
		}
		effect, duration := settings.Resolve(snap.Screen, slot)
		entry.Mode = render.Select(snap).String()
		entry.Duration = rotation.SlotDuration(slot.DisplayDuration).String()
		entry.Effect = transition.Lookup(effect).Name
		entry.Transition = duration.String()
		out.Slots = append(out.Slots, entry)
	}
	return out, nil
}

func sendHeartbeat(ctx context.Context, client *fetch.Client, token string) heartbeat.Admission {
	results := make(chan heartbeat.Result, 1)
	agent := heartbeat.NewAgent(client, token, heartbeat.MintSessionID(), heartbeat.Options{
		OnResult: func(r heartbeat.Result) {
			select {
			case results <- r:
			default:
			}
		},
	})
	agent.Start(ctx)
	defer agent.Stop()
	select {
	case r := <-results:
		if r.Err != nil {
			log.Printf("heartbeat failed token=%s error=%v", token, r.Err)
		}
		return r.Admission
	case <-ctx.Done():
		return heartbeat.Unknown
	}
}
