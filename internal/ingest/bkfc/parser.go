package bkfc

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

// EventStub is an event link found on the events index page.
type EventStub struct {
	Name     string
	URL      string
	DateText string
	Location string
}

// EventPageRecord is the raw shape of one BKFC event page, exactly as
// extracted. It is converted into the canonical snapshot form by Convert.
type EventPageRecord struct {
	Title         string
	DateText      string
	StartTimeText string
	Venue         string
	Location      string
	BannerURL     string
	Fights        []FightRowRecord
}

// FightRowRecord is one raw bout row on an event page.
type FightRowRecord struct {
	FighterAName   string
	FighterAURL    string
	FighterAImage  string
	FighterARecord string
	FighterBName   string
	FighterBURL    string
	FighterBImage  string
	FighterBRecord string
	WeightClass    string
	TitleFight     bool
	Position       int
	Rounds         int
}

// ParseEventList extracts upcoming event links from the events index page.
// The site's markup drifts, so several selector families are tried in order
// and the first that yields results wins.
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

	// Strategy 1: event cards on the upcoming events page
	doc.Find("div.upcoming-events div.event-item, div.events-list div.event-card").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Find("a[href*='/events/']").First().Attr("href")
		add(EventStub{
			Name:     strings.TrimSpace(s.Find(".event-title, h3").First().Text()),
			URL:      absoluteURL(href),
			DateText: strings.TrimSpace(s.Find(".event-date, time").First().Text()),
			Location: strings.TrimSpace(s.Find(".event-location").First().Text()),
		})
	})

	// Strategy 2: any event link on the page
	if len(stubs) == 0 {
		doc.Find("a[href*='/events/']").Each(func(i int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			name := strings.TrimSpace(s.Text())
			if name == "" {
				return
			}
			add(EventStub{Name: name, URL: absoluteURL(href)})
		})
	}

	log.Printf("[bkfc] Parsed %d event links", len(stubs))
	return stubs
}

// ParseEventPage extracts the raw event record from one event page.
func ParseEventPage(doc *goquery.Document) *EventPageRecord {
	rec := &EventPageRecord{}

	rec.Title = firstText(doc,
		"div.event-header h1",
		"h1.event-title",
		"h1",
	)
	rec.DateText = firstText(doc,
		"div.event-header .event-date",
		".event-info .date",
		"time",
	)
	rec.StartTimeText = firstText(doc,
		"div.event-header .event-time",
		".event-info .time",
	)
	rec.Venue = firstText(doc,
		"div.event-header .event-venue",
		".event-info .venue",
	)
	rec.Location = firstText(doc,
		"div.event-header .event-location",
		".event-info .location",
	)

	if banner, ok := doc.Find("div.event-banner img, img.event-banner").First().Attr("src"); ok {
		rec.BannerURL = absoluteURL(banner)
	}

	rec.Fights = parseFights(doc)
	return rec
}

// fightStrategy extracts raw bout rows from a page; strategies run in order
// and the first non-empty result wins.
type fightStrategy func(doc *goquery.Document) []FightRowRecord

var fightStrategies = []fightStrategy{
	parseFightCards,
	parseBoutRows,
	parseFreeTextPairings,
}

func parseFights(doc *goquery.Document) []FightRowRecord {
	for _, strategy := range fightStrategies {
		if fights := strategy(doc); len(fights) > 0 {
			return fights
		}
	}
	return nil
}

// parseFightCards handles the structured fight-card widget.
func parseFightCards(doc *goquery.Document) []FightRowRecord {
	var fights []FightRowRecord

	doc.Find("div.fight-card div.bout, section.fight-card div.fight").Each(func(i int, s *goquery.Selection) {
		var row FightRowRecord
		row.Position = i + 1

		s.Find("div.fighter").EachWithBreak(func(j int, fighter *goquery.Selection) bool {
			name := strings.TrimSpace(fighter.Find(".fighter-name").First().Text())
			href, _ := fighter.Find("a[href*='/fighters/']").First().Attr("href")
			img, _ := fighter.Find("img").First().Attr("src")
			record := strings.TrimSpace(fighter.Find(".fighter-record").First().Text())

			switch j {
			case 0:
				row.FighterAName = name
				row.FighterAURL = absoluteURL(href)
				row.FighterAImage = absoluteURL(img)
				row.FighterARecord = record
			case 1:
				row.FighterBName = name
				row.FighterBURL = absoluteURL(href)
				row.FighterBImage = absoluteURL(img)
				row.FighterBRecord = record
			}
			return j < 1
		})

		boutText := strings.TrimSpace(s.Find(".bout-info, .fight-details").Text())
		row.WeightClass = extractWeightClass(boutText)
		row.TitleFight = containsTitleMarker(boutText)
		row.Rounds = extractRounds(boutText)

		if row.FighterAName != "" && row.FighterBName != "" {
			fights = append(fights, row)
		}
	})

	return fights
}

// parseBoutRows handles the older table-style card layout.
func parseBoutRows(doc *goquery.Document) []FightRowRecord {
	var fights []FightRowRecord

	doc.Find("table.fight-table tr, ul.bout-list li").Each(func(i int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		a, b, ok := splitVersus(text)
		if !ok {
			return
		}

		fights = append(fights, FightRowRecord{
			Position:     len(fights) + 1,
			FighterAName: a,
			FighterBName: b,
			WeightClass:  extractWeightClass(text),
			TitleFight:   containsTitleMarker(text),
			Rounds:       extractRounds(text),
		})
	})

	return fights
}

var versusPattern = regexp.MustCompile(`(?m)^\s*([\p{L}][\p{L}'. -]{1,40}?)\s+vs\.?\s+([\p{L}][\p{L}'. -]{1,40})\s*$`)

// parseFreeTextPairings is the last-resort strategy: scan visible text for
// "A vs B" lines.
func parseFreeTextPairings(doc *goquery.Document) []FightRowRecord {
	var fights []FightRowRecord

	matches := versusPattern.FindAllStringSubmatch(doc.Text(), -1)
	for _, m := range matches {
		fights = append(fights, FightRowRecord{
			Position:     len(fights) + 1,
			FighterAName: strings.TrimSpace(m[1]),
			FighterBName: strings.TrimSpace(m[2]),
		})
	}

	return fights
}

// Convert maps the raw page record into the canonical snapshot shape.
// Past-dated events are skipped; implausible fighter names drop their fight;
// duplicate pairings within the page collapse to the fuller entry.
func (rec *EventPageRecord) Convert(sourceURL string, now time.Time) (snapshot.EventRecord, bool) {
	date, ok := parseEventDate(rec.DateText)
	if !ok {
		log.Printf("[bkfc] ⚠️  Unparsable event date %q for %q, skipping event", rec.DateText, rec.Title)
		return snapshot.EventRecord{}, false
	}

	if date.Before(now.Truncate(24 * time.Hour)) {
		return snapshot.EventRecord{}, false
	}

	event := snapshot.EventRecord{
		Name:      rec.Title,
		Promotion: "BKFC",
		Date:      date,
		StartTime: rec.StartTimeText,
		Venue:     rec.Venue,
		Location:  rec.Location,
		BannerURL: rec.BannerURL,
		SourceURL: sourceURL,
	}

	for _, row := range rec.Fights {
		if !normalize.PlausibleName(row.FighterAName) || !normalize.PlausibleName(row.FighterBName) {
			log.Printf("[bkfc] ⚠️  Dropping bout with implausible name: %q vs %q", row.FighterAName, row.FighterBName)
			continue
		}

		event.Fights = append(event.Fights, snapshot.FightRecord{
			FighterA: snapshot.FighterRecord{
				DisplayName: row.FighterAName,
				SourceURL:   row.FighterAURL,
				ImageURL:    row.FighterAImage,
				RecordText:  row.FighterARecord,
				WeightClass: row.WeightClass,
				Discipline:  "bareknuckle",
			},
			FighterB: snapshot.FighterRecord{
				DisplayName: row.FighterBName,
				SourceURL:   row.FighterBURL,
				ImageURL:    row.FighterBImage,
				RecordText:  row.FighterBRecord,
				WeightClass: row.WeightClass,
				Discipline:  "bareknuckle",
			},
			WeightClass:     row.WeightClass,
			TitleFight:      row.TitleFight,
			CardPosition:    row.Position,
			ScheduledRounds: row.Rounds,
		})
	}

	event.Fights = ingest.DedupeFights(event.Fights)
	return event, true
}

var eventDateLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"Monday, January 2, 2006",
	"2006-01-02",
	"01/02/2006",
}

func parseEventDate(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}

	// Date buried in surrounding text ("Saturday, June 13, 2026 - 8PM ET")
	datePattern := regexp.MustCompile(`([A-Z][a-z]+ \d{1,2}, \d{4})`)
	if m := datePattern.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse("January 2, 2006", m[1]); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}

var weightClassPattern = regexp.MustCompile(`(?i)\b((?:light |super |junior )?(?:heavyweight|cruiserweight|middleweight|welterweight|lightweight|featherweight|bantamweight|flyweight|strawweight))\b`)

func extractWeightClass(text string) string {
	if m := weightClassPattern.FindStringSubmatch(text); m != nil {
		return titleCase(m[1])
	}
	return ""
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func containsTitleMarker(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "title") || strings.Contains(lower, "championship")
}

var roundsPattern = regexp.MustCompile(`(?i)(\d+)\s*rounds?\b`)

func extractRounds(text string) int {
	if m := roundsPattern.FindStringSubmatch(text); m != nil {
		var n int
		for _, r := range m[1] {
			n = n*10 + int(r-'0')
		}
		return n
	}
	return 0
}

func splitVersus(text string) (string, string, bool) {
	if m := versusPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
	}
	return "", "", false
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
	if strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return BaseURL + href
}
