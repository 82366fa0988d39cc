package tapology

import (
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fortuna/cutman/internal/ingest"
	"github.com/fortuna/cutman/internal/normalize"
	"github.com/fortuna/cutman/internal/snapshot"
)

// EventStub is one event link from a fightcenter listing page.
type EventStub struct {
	Name      string
	URL       string
	Promotion string
	DateText  string
}

// EventPageRecord is the raw shape of one Tapology event page.
type EventPageRecord struct {
	Title     string
	Promotion string
	DateText  string
	Venue     string
	Location  string
	Fights    []BoutRecord
}

// BoutRecord is one raw bout row. Fighter names can come from the link
// text or, when absent, from the profile URL slug.
type BoutRecord struct {
	FighterAName   string
	FighterAURL    string
	FighterARecord string
	FighterBName   string
	FighterBURL    string
	FighterBRecord string
	WeightClass    string
	Position       int
}

// ParseEventList extracts event links from a fightcenter listing page.
func ParseEventList(doc *goquery.Document) []EventStub {
	var stubs []EventStub
	seen := make(map[string]bool)

	add := func(stub EventStub) {
		if stub.URL == "" || seen[stub.URL] {
			return
		}
		seen[stub.URL] = true
		stubs = append(stubs, stub)
	}

	// Strategy 1: fightcenter preview blocks
	doc.Find("div.fightcenterEvents div.promotion, section.fcListing").Each(func(i int, s *goquery.Selection) {
		link := s.Find("a[href*='/fightcenter/events/']").First()
		href, _ := link.Attr("href")
		add(EventStub{
			Name:      strings.TrimSpace(link.Text()),
			URL:       absoluteURL(href),
			Promotion: strings.TrimSpace(s.Find(".promotionName, .promotion-name").First().Text()),
			DateText:  strings.TrimSpace(s.Find(".datetime, .date").First().Text()),
		})
	})

	// Strategy 2: bare event links
	if len(stubs) == 0 {
		doc.Find("a[href*='/fightcenter/events/']").Each(func(i int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			name := strings.TrimSpace(s.Text())
			if name == "" {
				return
			}
			add(EventStub{Name: name, URL: absoluteURL(href)})
		})
	}

	log.Printf("[tapology] Parsed %d event links", len(stubs))
	return stubs
}

// ParseEventPage extracts the raw event record from one event page.
func ParseEventPage(doc *goquery.Document) *EventPageRecord {
	rec := &EventPageRecord{}

	rec.Title = firstText(doc,
		"div.eventPageHeader h1",
		"h1.eventName",
		"h1",
	)
	rec.Promotion = firstText(doc,
		".eventPageHeader .promotionName",
		"span.promotion",
	)

	doc.Find("ul.eventDetails li, div.details li").Each(func(i int, s *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(s.Find("strong, .label").First().Text()))
		value := strings.TrimSpace(s.Find("span, .value").Last().Text())
		switch {
		case strings.HasPrefix(label, "date"):
			rec.DateText = value
		case strings.HasPrefix(label, "venue"):
			rec.Venue = value
		case strings.HasPrefix(label, "location"):
			rec.Location = value
		}
	})
	if rec.DateText == "" {
		rec.DateText = firstText(doc, ".eventPageHeader .datetime", "time")
	}

	rec.Fights = parseBouts(doc)
	return rec
}

func parseBouts(doc *goquery.Document) []BoutRecord {
	var bouts []BoutRecord

	// Strategy 1: the modern bout list
	doc.Find("ul.fightCard li.fightCardBout, div.fightCard div.bout").Each(func(i int, s *goquery.Selection) {
		if bout, ok := parseBout(s); ok {
			bout.Position = len(bouts) + 1
			bouts = append(bouts, bout)
		}
	})
	if len(bouts) > 0 {
		return bouts
	}

	// Strategy 2: any row holding two fighter profile links
	doc.Find("li, tr").Each(func(i int, s *goquery.Selection) {
		links := s.Find("a[href*='/fightcenter/fighters/']")
		if links.Length() != 2 {
			return
		}
		if bout, ok := parseBout(s); ok {
			bout.Position = len(bouts) + 1
			bouts = append(bouts, bout)
		}
	})

	return bouts
}

func parseBout(s *goquery.Selection) (BoutRecord, bool) {
	var bout BoutRecord

	s.Find("a[href*='/fightcenter/fighters/']").EachWithBreak(func(j int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		name := strings.TrimSpace(link.Text())
		if name == "" {
			name = nameFromSlug(href)
		}

		switch j {
		case 0:
			bout.FighterAName = name
			bout.FighterAURL = absoluteURL(href)
			bout.FighterARecord = strings.TrimSpace(link.Parent().Find(".record").First().Text())
		case 1:
			bout.FighterBName = name
			bout.FighterBURL = absoluteURL(href)
			bout.FighterBRecord = strings.TrimSpace(link.Parent().Find(".record").First().Text())
		}
		return j < 1
	})

	bout.WeightClass = strings.TrimSpace(s.Find(".weight, .weightClass").First().Text())

	return bout, bout.FighterAName != "" && bout.FighterBName != ""
}

// nameFromSlug recovers a display name from a profile URL slug such as
// "/fightcenter/fighters/yoel-romero-iqws6". The slug's trailing id token
// is dropped by the name parser.
func nameFromSlug(href string) string {
	slug := strings.TrimSuffix(href, "/")
	if idx := strings.LastIndex(slug, "/"); idx >= 0 {
		slug = slug[idx+1:]
	}
	name := normalize.Parse(slug)
	if name.IsZero() {
		return ""
	}
	return name.Display()
}

// Convert maps the raw page record into the canonical snapshot shape.
func (rec *EventPageRecord) Convert(sourceURL string, now time.Time) (snapshot.EventRecord, bool) {
	date, ok := parseEventDate(rec.DateText)
	if !ok {
		log.Printf("[tapology] ⚠️  Unparsable event date %q for %q, skipping event", rec.DateText, rec.Title)
		return snapshot.EventRecord{}, false
	}

	if date.Before(now.Truncate(24 * time.Hour)) {
		return snapshot.EventRecord{}, false
	}

	event := snapshot.EventRecord{
		Name:      rec.Title,
		Promotion: rec.Promotion,
		Date:      date,
		Venue:     rec.Venue,
		Location:  rec.Location,
		SourceURL: sourceURL,
	}

	for _, bout := range rec.Fights {
		if !normalize.PlausibleName(bout.FighterAName) || !normalize.PlausibleName(bout.FighterBName) {
			log.Printf("[tapology] ⚠️  Dropping bout with implausible name: %q vs %q", bout.FighterAName, bout.FighterBName)
			continue
		}

		event.Fights = append(event.Fights, snapshot.FightRecord{
			FighterA: snapshot.FighterRecord{
				DisplayName: bout.FighterAName,
				SourceURL:   bout.FighterAURL,
				RecordText:  bout.FighterARecord,
				WeightClass: bout.WeightClass,
			},
			FighterB: snapshot.FighterRecord{
				DisplayName: bout.FighterBName,
				SourceURL:   bout.FighterBURL,
				RecordText:  bout.FighterBRecord,
				WeightClass: bout.WeightClass,
			},
			WeightClass:  bout.WeightClass,
			CardPosition: bout.Position,
		})
	}

	event.Fights = ingest.DedupeFights(event.Fights)
	return event, true
}

var eventDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
	"01.02.2006",
}

var embeddedDatePattern = regexp.MustCompile(`([A-Z][a-z]+ \d{1,2}, \d{4})`)

func parseEventDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	if m := embeddedDatePattern.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("January 2, 2006", m[1]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func firstText(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if text := strings.TrimSpace(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func absoluteURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return BaseURL + href
}
