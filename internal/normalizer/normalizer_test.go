package normalizer

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/SIG-DEV-GBA/web-scraper-agendades/internal/models"
)

func TestDetectPrice(t *testing.T) {
	cases := []struct {
		name     string
		text     string
		wantFree *bool
		wantAmt  *float64
	}{
		{"gratis", "Entrada gratis para todos", boolPtr(true), floatPtr(0)},
		{"gratuito", "Concierto gratuito en la plaza", boolPtr(true), floatPtr(0)},
		{"entrada libre", "Entrada libre hasta completar aforo", boolPtr(true), floatPtr(0)},
		{"zero euro", "Precio 0€", boolPtr(true), floatPtr(0)},
		{"euro suffix", "Entradas a 15€ en taquilla", boolPtr(false), floatPtr(15)},
		{"euro prefix", "Precio €12,50", boolPtr(false), floatPtr(12.50)},
		{"labeled", "Entrada: 5€", boolPtr(false), floatPtr(5)},
		{"desde", "desde 20 euros", boolPtr(false), floatPtr(20)},
		{"free wins over amount", "Gratis (valorado en 10€)", boolPtr(true), floatPtr(0)},
		{"no signal", "Teatro para toda la familia", nil, nil},
		{"empty", "", nil, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sig := DetectPrice(c.text)
			if (sig.IsFree == nil) != (c.wantFree == nil) {
				t.Fatalf("IsFree presence mismatch: %v", sig.IsFree)
			}
			if sig.IsFree != nil && *sig.IsFree != *c.wantFree {
				t.Fatalf("IsFree = %v, want %v", *sig.IsFree, *c.wantFree)
			}
			if (sig.Price == nil) != (c.wantAmt == nil) {
				t.Fatalf("Price presence mismatch: %v", sig.Price)
			}
			if sig.Price != nil && *sig.Price != *c.wantAmt {
				t.Fatalf("Price = %v, want %v", *sig.Price, *c.wantAmt)
			}
		})
	}
}

func TestDetectPriceFreeInfo(t *testing.T) {
	sig := DetectPrice("Acceso gratuito")
	if sig.Info != "Gratuito" {
		t.Fatalf("Info = %q, want Gratuito", sig.Info)
	}
}

func TestDetectPriceTruncatesOnRuneBoundary(t *testing.T) {
	// Padding places a multi-byte € straddling byte 200.
	text := "Entrada: 5€ " + strings.Repeat("x", 184) + "€€€€€"
	sig := DetectPrice(text)
	if len([]rune(sig.Info)) != 200 {
		t.Fatalf("Info runes = %d, want 200", len([]rune(sig.Info)))
	}
	if !utf8.ValidString(sig.Info) {
		t.Fatalf("Info is not valid UTF-8: %q", sig.Info)
	}
}

func TestExtractEmail(t *testing.T) {
	got := ExtractEmail("Más información: Cultura@Ayuntamiento.es o en taquilla")
	if got != "cultura@ayuntamiento.es" {
		t.Fatalf("ExtractEmail = %q", got)
	}
	if ExtractEmail("sin correo aquí") != "" {
		t.Fatal("expected empty result for text without email")
	}
}

func TestExtractPhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Reservas al 612345678", "612 345 678"},
		{"Tel: +34 912 34 56 78", ""},
		{"Llamar al 912.345.678", "912 345 678"},
		{"Contacto: 687 654 321", "687 654 321"},
		{"Código postal 28001", ""},
	}
	for _, c := range cases {
		if got := ExtractPhone(c.in); got != c.want {
			t.Fatalf("ExtractPhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractRegistrationURL(t *testing.T) {
	// Ticket platform beats a generic registration keyword.
	got := ExtractRegistrationURL(
		`Reserva en <a href="https://example.com/entradas">taquilla</a> o en https://www.eventbrite.es/e/concierto-123`,
	)
	if got != "https://www.eventbrite.es/e/concierto-123" {
		t.Fatalf("platform URL not preferred: %q", got)
	}

	// Keyword fallback when no known platform is present.
	got = ExtractRegistrationURL(`Más info: <a href="https://museo.es/inscripcion">apúntate</a>`)
	if got != "https://museo.es/inscripcion" {
		t.Fatalf("keyword URL not found: %q", got)
	}

	// A bare unrelated link is not a registration link.
	if got := ExtractRegistrationURL("Visita https://museo.es/sala-3"); got != "" {
		t.Fatalf("unrelated URL returned: %q", got)
	}
}

func TestStripAnchors(t *testing.T) {
	in := `Concierto en la <a href="https://sala.es">Sala Apolo</a>.<br> No te lo pierdas.`
	want := "Concierto en la Sala Apolo. No te lo pierdas."
	if got := StripAnchors(in); got != want {
		t.Fatalf("StripAnchors = %q, want %q", got, want)
	}
}

func TestNormalizeFillsDefaultPriceInfo(t *testing.T) {
	ev := &models.CanonicalEvent{Title: "Teatro", Description: "Obra clásica."}
	Normalize(ev)
	if ev.PriceInfo != DefaultPriceInfo {
		t.Fatalf("PriceInfo = %q, want default placeholder", ev.PriceInfo)
	}
	if ev.IsFree != nil {
		t.Fatal("IsFree should stay unknown without a price signal")
	}
}

func TestNormalizeDetectsPriceAndContacts(t *testing.T) {
	ev := &models.CanonicalEvent{
		Title:       "Concierto",
		PriceInfo:   "Entrada: 5€",
		Description: "Reservas: cultura@ayto.es o 612345678",
	}
	Normalize(ev)

	if ev.IsFree == nil || *ev.IsFree {
		t.Fatalf("IsFree = %v, want false", ev.IsFree)
	}
	if ev.Price == nil || *ev.Price != 5 {
		t.Fatalf("Price = %v, want 5", ev.Price)
	}
	if ev.PriceInfo != "Entrada: 5€" {
		t.Fatalf("PriceInfo = %q", ev.PriceInfo)
	}
	if ev.ContactEmail != "cultura@ayto.es" {
		t.Fatalf("ContactEmail = %q", ev.ContactEmail)
	}
	if ev.ContactPhone != "612 345 678" {
		t.Fatalf("ContactPhone = %q", ev.ContactPhone)
	}
}

func TestNormalizeDoesNotOverrideAdapterPrice(t *testing.T) {
	isFree := true
	zero := 0.0
	ev := &models.CanonicalEvent{
		Title:       "Feria",
		IsFree:      &isFree,
		Price:       &zero,
		PriceInfo:   "Gratuito",
		Description: "Cuesta 10€ el taller opcional.",
	}
	Normalize(ev)
	if !*ev.IsFree || *ev.Price != 0 {
		t.Fatal("adapter-provided price data was overwritten")
	}
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }
