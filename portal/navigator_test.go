package portal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tnpds-watch/shopcrawl/config"
	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
	"github.com/tnpds-watch/shopcrawl/session/sessiontest"
)

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.NavigationTimeout = 500 * time.Millisecond
	cfg.DialogTimeout = 500 * time.Millisecond
	cfg.PollInterval = 10 * time.Millisecond
	return cfg
}

// cascadingPortal scripts the portal's asynchronous dropdown chain: each
// selection populates the next dropdown after a short delay, and the search
// click renders the detail page after another.
func cascadingPortal(fake *sessiontest.Fake) {
	fake.SetOptions(selDistrict, "-- Select --", "Sivagangai", "Madurai")
	fake.Set(selTaluk, &sessiontest.FakeElement{})
	fake.Set(selShop, &sessiontest.FakeElement{})
	fake.Set(selSearch, &sessiontest.FakeElement{})

	fake.OnSelect = func(selector, label string) {
		switch selector {
		case selDistrict:
			fake.SetOptionsAfter(selTaluk, 20*time.Millisecond, "-- Select --", "Devakottai", "Karaikudi")
		case selTaluk:
			fake.SetOptionsAfter(selShop, 20*time.Millisecond, "-- Select --", "SG-042 Keelur Main Street", "SG-043 Devakottai Bazaar")
		}
	}
	fake.OnClick = func(selector string) {
		if selector == selSearch {
			fake.SetAfter(selDetailRoot, 20*time.Millisecond, &sessiontest.FakeElement{})
		}
	}
}

func TestOpenShopCascadesThroughDropdowns(t *testing.T) {
	fake := sessiontest.New()
	cascadingPortal(fake)

	nav := NewNavigator(testConfig())
	q := models.ShopQuery{ID: "SG-042", District: "Sivagangai", Taluk: "Devakottai"}

	if err := nav.OpenShop(context.Background(), fake, q); err != nil {
		t.Fatalf("OpenShop() error = %v", err)
	}

	if len(fake.NavigateCalls) != 1 {
		t.Fatalf("navigate calls = %d, want 1", len(fake.NavigateCalls))
	}
	want := []string{
		selDistrict + "=Sivagangai",
		selTaluk + "=Devakottai",
		selShop + "=SG-042 Keelur Main Street",
	}
	if len(fake.SelectCalls) != len(want) {
		t.Fatalf("select calls = %v, want %v", fake.SelectCalls, want)
	}
	for i, call := range want {
		if fake.SelectCalls[i] != call {
			t.Errorf("select call %d = %q, want %q", i, fake.SelectCalls[i], call)
		}
	}
	if len(fake.ClickCalls) != 1 || fake.ClickCalls[0] != selSearch {
		t.Errorf("click calls = %v, want [%s]", fake.ClickCalls, selSearch)
	}
}

func TestOpenShopMatchesShopOptionBySubstring(t *testing.T) {
	fake := sessiontest.New()
	cascadingPortal(fake)

	nav := NewNavigator(testConfig())
	q := models.ShopQuery{ID: "sg-043", District: "Sivagangai", Taluk: "Devakottai"}

	if err := nav.OpenShop(context.Background(), fake, q); err != nil {
		t.Fatalf("OpenShop() error = %v", err)
	}
	got := fake.SelectCalls[len(fake.SelectCalls)-1]
	if got != selShop+"=SG-043 Devakottai Bazaar" {
		t.Errorf("shop select = %q, want decorated label match", got)
	}
}

func TestOpenShopTimesOutWhenTalukNeverPopulates(t *testing.T) {
	fake := sessiontest.New()
	fake.SetOptions(selDistrict, "Sivagangai")
	fake.Set(selTaluk, &sessiontest.FakeElement{})

	nav := NewNavigator(testConfig())
	q := models.ShopQuery{ID: "SG-042", District: "Sivagangai", Taluk: "Devakottai"}

	err := nav.OpenShop(context.Background(), fake, q)
	var timeout session.ErrWaitTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("OpenShop() error = %v, want wait timeout", err)
	}
	if !strings.Contains(timeout.What, "taluk") {
		t.Errorf("timeout.What = %q, want taluk wait", timeout.What)
	}
}

func TestOpenShopRejectsIncompleteQuery(t *testing.T) {
	fake := sessiontest.New()
	nav := NewNavigator(testConfig())

	err := nav.OpenShop(context.Background(), fake, models.ShopQuery{ID: "SG-042", District: "Sivagangai"})
	if err == nil {
		t.Fatal("OpenShop() error = nil, want registry entry error")
	}
	if len(fake.NavigateCalls) != 0 {
		t.Errorf("navigated despite incomplete query: %v", fake.NavigateCalls)
	}
}

func TestOpenShopPropagatesSessionLoss(t *testing.T) {
	fake := sessiontest.New()
	cfg := testConfig()
	fake.Errs[cfg.SearchURL()] = session.ErrSessionLost{Err: errors.New("browser gone")}

	nav := NewNavigator(cfg)
	q := models.ShopQuery{ID: "SG-042", District: "Sivagangai", Taluk: "Devakottai"}

	err := nav.OpenShop(context.Background(), fake, q)
	if !session.IsSessionLost(err) {
		t.Fatalf("OpenShop() error = %v, want session lost", err)
	}
}
