package core

import (
	"context"
	"testing"
	"time"
)

func TestConfigToLayerMap_OmitsZeroValues(t *testing.T) {
	runtime := Config{Addrs: []string{"proxy:3025"}}
	layer := configToLayerMap(runtime, false)

	if _, ok := layer["client_name"]; ok {
		t.Fatalf("zero client_name must be omitted from a non-default layer")
	}
	if _, ok := layer["addrs"]; !ok {
		t.Fatalf("set addrs must be present in the layer")
	}
	if _, ok := layer["credentials"]; ok {
		t.Fatalf("empty credentials section must be omitted")
	}

	defaults := configToLayerMap(DefaultConfig(), true)
	if _, ok := defaults["client_name"]; !ok {
		t.Fatalf("defaults layer must carry client_name")
	}
	if _, ok := defaults["credentials"]; !ok {
		t.Fatalf("defaults layer must carry the credentials section")
	}
}

func TestStaticRawConfigLoader_CopiesValues(t *testing.T) {
	source := map[string]any{"client_name": "probe"}
	loader := NewStaticRawConfigLoader(source)

	raw, err := loader.LoadRaw(context.Background())
	if err != nil {
		t.Fatalf("load raw: %v", err)
	}
	raw["client_name"] = "mutated"
	if source["client_name"] != "probe" {
		t.Fatalf("loader must hand out a copy, not the source map")
	}

	empty, err := NewStaticRawConfigLoader(nil).LoadRaw(context.Background())
	if err != nil || empty == nil {
		t.Fatalf("empty loader must return a usable map, got %v %v", empty, err)
	}
}

func TestResolveLayering_RuntimeWins(t *testing.T) {
	defaults := DefaultConfig()
	loaded := DefaultConfig()
	loaded.Addrs = []string{"file.example.com:3025"}
	loaded.DialTimeout = 10 * time.Second
	runtime := Config{Addrs: []string{"runtime.example.com:3025"}}

	resolved, err := GoOptionsResolver{}.Resolve(defaults, loaded, runtime)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved.Addrs) != 1 || resolved.Addrs[0] != "runtime.example.com:3025" {
		t.Fatalf("runtime addrs must win, got %v", resolved.Addrs)
	}
	if resolved.DialTimeout != 10*time.Second {
		t.Fatalf("loaded dial timeout must survive when runtime is silent, got %v", resolved.DialTimeout)
	}
	if resolved.ClientName != defaults.ClientName {
		t.Fatalf("defaults must fill unset fields, got %q", resolved.ClientName)
	}
}
