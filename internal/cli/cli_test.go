package cli

import (
	"testing"

	"inboxpilot-backend/pkg/config"
)

func TestPriceCatalog(t *testing.T) {
	catalog := priceCatalog(map[string]config.PlanPrices{
		"starter":  {Monthly: "price_s_m", Yearly: "price_s_y"},
		"standard": {Monthly: "price_std_m"},
	})
	if got := catalog.Plan("price_s_y").Name; got != "starter" {
		t.Errorf("expected starter for yearly price, got %s", got)
	}
	if got := catalog.Plan("price_std_m").ConnectedLimit; got != 10 {
		t.Errorf("expected standard limit, got %d", got)
	}
	if _, ok := catalog[""]; ok {
		t.Error("empty price ids must not be registered")
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := map[string]bool{"serve": false, "migrate": false, "purge": false, "org": false, "token": false}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("command %q not registered", name)
		}
	}
}
