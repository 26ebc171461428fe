package app

import (
	"context"
	"reflect"
	"testing"
)

func TestCloseOrder(t *testing.T) {
	noop := func(context.Context) error { return nil }
	fns := map[string]func(context.Context) error{
		"Config":      noop,
		"HTTP Server": noop,
		"Datadog":     noop,
		"Dataset":     noop,
	}

	got := closeOrder(fns)
	want := []string{"Dataset", "Datadog", "Config"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("closeOrder = %v, want %v", got, want)
	}

	delete(fns, "Datadog")
	if got := closeOrder(fns); !reflect.DeepEqual(got, []string{"Dataset", "Config"}) {
		t.Fatalf("closeOrder without datadog = %v", got)
	}
}
