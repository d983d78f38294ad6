// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package apply

import (
	"context"
	"testing"

	"github.com/glotframe/glotframe/internal/canvas"
	"github.com/glotframe/glotframe/internal/model"
	"github.com/glotframe/glotframe/internal/testutil"
)

var interFont = canvas.Font{Family: "Inter", Style: "Regular"}

func record(t *testing.T, catalog []canvas.Font, texts ...canvas.TextOptions) (*model.CloneRecord, canvas.FontLoader) {
	t.Helper()
	page := canvas.NewFrame(canvas.FrameOptions{Name: "page", Type: canvas.NodePage})
	handles := make(map[string]canvas.TextNode, len(texts))
	for i, opts := range texts {
		txt := canvas.NewText(opts)
		if err := page.AppendChild(txt); err != nil {
			t.Fatal(err)
		}
		handles[model.UnitID(i)] = txt
	}
	doc := canvas.NewDoc(page, catalog)
	return &model.CloneRecord{Language: "de", Root: page, Handles: handles}, doc.Fonts()
}

func TestApplyWritesMappedHandles(t *testing.T) {
	rec, fonts := record(t, nil,
		canvas.TextOptions{Name: "a", Characters: "Hello", Font: interFont},
		canvas.TextOptions{Name: "b", Characters: "World", Font: interFont},
	)
	a := New(fonts, testutil.TestLogger())

	set := model.TranslationSet{"t0": "Hallo"} // t1 missing from the response
	res := a.Apply(context.Background(), rec, set, model.LanguageTarget{Code: "de"}, model.RunConfig{})

	if res.Applied != 1 || len(res.FontErrors) != 0 {
		t.Errorf("result = %+v", res)
	}
	if rec.Handles["t0"].Characters() != "Hallo" {
		t.Errorf("t0 = %q", rec.Handles["t0"].Characters())
	}
	if rec.Handles["t1"].Characters() != "World" {
		t.Error("unmapped unit was touched")
	}
}

func TestApplyFontFailureSkipsUnit(t *testing.T) {
	// Empty catalog: every load fails.
	rec, fonts := record(t, []canvas.Font{},
		canvas.TextOptions{Name: "headline", Characters: "Hello", Font: interFont},
	)
	a := New(fonts, testutil.TestLogger())

	res := a.Apply(context.Background(), rec, model.TranslationSet{"t0": "Hallo"},
		model.LanguageTarget{Code: "de"}, model.RunConfig{})

	if res.Applied != 0 {
		t.Errorf("applied = %d, want 0", res.Applied)
	}
	if len(res.FontErrors) != 1 || res.FontErrors[0] != "headline" {
		t.Errorf("fontErrors = %v", res.FontErrors)
	}
	if rec.Handles["t0"].Characters() != "Hello" {
		t.Error("text written despite font failure")
	}
}

func TestApplyFontFallback(t *testing.T) {
	noto := canvas.Font{Family: "Noto Sans", Style: "Regular"}
	rec, fonts := record(t, []canvas.Font{noto},
		canvas.TextOptions{Name: "a", Characters: "Hello", Font: interFont},
	)
	a := New(fonts, testutil.TestLogger())

	cfg := model.RunConfig{FontFallback: model.FontFallback{
		Enabled: true,
		Fonts: []model.FontChoice{
			{Family: "Missing", Style: "Bold"},
			{Family: "Noto Sans", Style: "Regular"},
		},
	}}
	res := a.Apply(context.Background(), rec, model.TranslationSet{"t0": "Hallo"},
		model.LanguageTarget{Code: "de"}, cfg)

	if res.Applied != 1 || len(res.FontErrors) != 0 {
		t.Fatalf("result = %+v", res)
	}
	if rec.Handles["t0"].Font() != noto {
		t.Errorf("font = %v, want fallback %v", rec.Handles["t0"].Font(), noto)
	}
	if rec.Handles["t0"].Characters() != "Hallo" {
		t.Error("text not applied after fallback")
	}
}

func TestApplyRTLAlignment(t *testing.T) {
	rec, fonts := record(t, nil,
		canvas.TextOptions{Name: "left", Characters: "Hello", Font: interFont, Alignment: canvas.AlignLeft},
		canvas.TextOptions{Name: "centered", Characters: "World", Font: interFont, Alignment: canvas.AlignCenter},
	)
	a := New(fonts, testutil.TestLogger())

	ar := model.LanguageTarget{Code: "ar", Direction: model.DirectionRTL}
	cfg := model.RunConfig{ApplyRTL: true}
	set := model.TranslationSet{"t0": "مرحبا", "t1": "عالم"}

	res := a.Apply(context.Background(), rec, set, ar, cfg)
	if res.Applied != 2 {
		t.Fatalf("applied = %d", res.Applied)
	}

	if rec.Handles["t0"].Alignment() != canvas.AlignRight {
		t.Errorf("left-aligned unit = %s, want right", rec.Handles["t0"].Alignment())
	}
	// Centered stays centered.
	if rec.Handles["t1"].Alignment() != canvas.AlignCenter {
		t.Errorf("centered unit = %s, want center", rec.Handles["t1"].Alignment())
	}

	if mt, ok := rec.Handles["t0"].(*canvas.Text); ok {
		if mt.ParagraphDirection() != canvas.DirectionRTL {
			t.Errorf("direction = %s, want rtl", mt.ParagraphDirection())
		}
	}
}

func TestApplyRTLDisabled(t *testing.T) {
	rec, fonts := record(t, nil,
		canvas.TextOptions{Name: "a", Characters: "Hello", Font: interFont, Alignment: canvas.AlignLeft},
	)
	a := New(fonts, testutil.TestLogger())

	ar := model.LanguageTarget{Code: "ar", Direction: model.DirectionRTL}
	a.Apply(context.Background(), rec, model.TranslationSet{"t0": "مرحبا"}, ar, model.RunConfig{})

	if rec.Handles["t0"].Alignment() != canvas.AlignLeft {
		t.Error("alignment changed although ApplyRTL is off")
	}
}
