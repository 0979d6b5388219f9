// Package portal implements the step functions that drive the PDS report
// pages: reaching a shop's detail page through the cascading district, taluk
// and shop selection, classifying the rendered status, and extracting the
// last transaction's bill items. Steps never retry internally; failures
// propagate uninterpreted to the resilience layer.
package portal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tnpds-watch/shopcrawl/config"
	"github.com/tnpds-watch/shopcrawl/models"
	"github.com/tnpds-watch/shopcrawl/session"
)

// Navigator drives the shop-search workflow to a shop's detail page.
type Navigator struct {
	searchURL string
	timeout   time.Duration
	interval  time.Duration
}

// NewNavigator builds a navigator from run configuration.
func NewNavigator(cfg *config.Config) *Navigator {
	return &Navigator{
		searchURL: cfg.SearchURL(),
		timeout:   cfg.NavigationTimeout,
		interval:  cfg.PollInterval,
	}
}

// OpenShop reaches the detail page for q. Each dropdown selection triggers
// an asynchronous repopulation of the next dropdown, so every selection
// waits for the target option to appear first; selecting on a stale options
// list is the portal's principal source of flakiness.
func (n *Navigator) OpenShop(ctx context.Context, s session.Session, q models.ShopQuery) error {
	if q.District == "" || q.Taluk == "" {
		return fmt.Errorf("shop %s: registry entry has no district or taluk", q.ID)
	}

	if err := s.NavigateTo(n.searchURL); err != nil {
		return err
	}

	if err := n.selectOption(ctx, s, selDistrict, "district", q.District); err != nil {
		return err
	}
	if err := n.selectOption(ctx, s, selTaluk, "taluk", q.Taluk); err != nil {
		return err
	}
	if err := n.selectOption(ctx, s, selShop, "shop", q.ID); err != nil {
		return err
	}

	if err := s.Click(selSearch); err != nil {
		return err
	}
	_, err := session.Await(ctx, s, "shop detail page", func(s session.Session) (session.Element, error) {
		return s.Find(selDetailRoot)
	}, n.timeout, n.interval)
	return err
}

// selectOption waits for an option matching target to appear in the dropdown
// and selects it by its exact rendered label. Matching is a case-insensitive
// substring check: the portal decorates labels (shop options carry the shop
// name after the code).
func (n *Navigator) selectOption(ctx context.Context, s session.Session, selector, what, target string) error {
	option, err := session.Await(ctx, s, what+" option "+target, hasOption(selector, target), n.timeout, n.interval)
	if err != nil {
		return err
	}
	label, err := option.Text()
	if err != nil {
		return err
	}
	return s.Select(selector, label)
}

func hasOption(selector, target string) session.Predicate {
	want := strings.ToLower(strings.TrimSpace(target))
	return func(s session.Session) (session.Element, error) {
		options, err := s.FindAll(selector + " option")
		if err != nil {
			return nil, err
		}
		for _, option := range options {
			text, err := option.Text()
			if err != nil {
				continue
			}
			if strings.Contains(strings.ToLower(strings.TrimSpace(text)), want) {
				return option, nil
			}
		}
		return nil, session.ErrElementNotFound{Selector: selector + " option"}
	}
}
