package applier

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"
)

const mutationBinding = "__reskin_binding"

// RodPage adapts a live Rod page to the Page interface. Injection ids are
// carried as element ids and data attributes inside the document so that
// idempotence holds even across separate processes touching the same tab.
type RodPage struct {
	Page *rod.Page
}

func (p *RodPage) AppendInlineStyle(ctx context.Context, id, selector, css string) (int, error) {
	res, err := p.Page.Context(ctx).Eval(`(id, selector, css) => {
		let n = 0;
		document.querySelectorAll(selector).forEach(el => {
			if (el.getAttribute('data-' + id) !== null) return;
			el.style.cssText += css;
			el.setAttribute('data-' + id, '1');
			n++;
		});
		return n;
	}`, id, selector, css)
	if err != nil {
		return 0, fmt.Errorf("append inline style %q: %w", selector, err)
	}
	return res.Value.Int(), nil
}

func (p *RodPage) UpsertStyleRule(ctx context.Context, id, ruleText string) error {
	_, err := p.Page.Context(ctx).Eval(`(id, ruleText) => {
		let tag = document.getElementById(id);
		if (!tag) {
			tag = document.createElement('style');
			tag.id = id;
			document.head.appendChild(tag);
		}
		tag.textContent = ruleText;
	}`, id, ruleText)
	if err != nil {
		return fmt.Errorf("upsert style rule %s: %w", id, err)
	}
	return nil
}

func (p *RodPage) UpsertScript(ctx context.Context, id, js string) error {
	_, err := p.Page.Context(ctx).Eval(`(id, js) => {
		const prior = document.getElementById(id);
		if (prior) prior.remove();
		const s = document.createElement('script');
		s.id = id;
		s.textContent = js;
		document.body.appendChild(s);
	}`, id, js)
	if err != nil {
		return fmt.Errorf("upsert script %s: %w", id, err)
	}
	return nil
}

// ObserveChildList installs a MutationObserver in the page that reports
// child-list changes back over a CDP binding.
func (p *RodPage) ObserveChildList(ctx context.Context, fn func()) (func(), error) {
	obsCtx, cancel := context.WithCancel(ctx)

	if err := (proto.RuntimeAddBinding{Name: mutationBinding}).Call(p.Page); err != nil {
		log.Warn().Err(err).Msg("add binding failed (may already exist)")
	}

	go p.Page.Context(obsCtx).EachEvent(func(e *proto.RuntimeBindingCalled) {
		if e.Name == mutationBinding {
			fn()
		}
	})()

	_, err := p.Page.Context(obsCtx).Eval(`(binding) => {
		if (window.__reskinObserver) return;
		const mo = new MutationObserver(muts => {
			for (const m of muts) {
				if (m.type === 'childList') {
					window[binding]('childList');
					return;
				}
			}
		});
		mo.observe(document.documentElement, { childList: true, subtree: true });
		window.__reskinObserver = mo;
	}`, mutationBinding)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("install mutation observer: %w", err)
	}

	return cancel, nil
}
