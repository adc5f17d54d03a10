// Package utils holds conversions between typed structs and records, and the
// sample data used by the demo and by tests.
package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/asaidimu/go-tableview/core/columns"
	"github.com/asaidimu/go-tableview/core/schema"
)

// idCharacters favours digits, and 0 most of all, so generated ids look like
// real record ids.
const idCharacters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" +
	"000000000000000000000000000000000000000000000000" +
	"111122223333444455556666777788889999"

// IDPrefix starts every generated id.
const IDPrefix = "001"

// SampleColumns describes the fields GenerateRecords produces.
func SampleColumns() []columns.Column {
	return []columns.Column{
		{Label: "Opportunity name", FieldName: "name", Type: "text"},
		{Label: "Website", FieldName: "website", Type: "url"},
		{Label: "Phone", FieldName: "phone", Type: "phone"},
		{Label: "Amount", FieldName: "amount", Type: "currency"},
		{Label: "Close date", FieldName: "closeAt", Type: "date"},
	}
}

func sampleID(rng *rand.Rand, length int) string {
	var sb strings.Builder
	sb.WriteString(IDPrefix)
	for range length {
		sb.WriteByte(idCharacters[rng.Intn(len(idCharacters))])
	}
	return sb.String()
}

// GenerateRecords returns n opportunity-like records. Names are numbered from 1
// in generation order; amounts are 0..99, phones have ten digits and close
// dates fall 1 to 20 days after now. A nil rng uses a time-seeded source.
func GenerateRecords(n int, rng *rand.Rand) []schema.Record {
	return GenerateRecordsAt(n, rng, time.Now())
}

// GenerateRecordsAt is GenerateRecords with a fixed reference time.
func GenerateRecordsAt(n int, rng *rand.Rand, now time.Time) []schema.Record {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	records := make([]schema.Record, max(n, 0))
	for i := range records {
		id := sampleID(rng, 12)
		records[i] = schema.Record{
			"Id":      id,
			"name":    fmt.Sprintf("Name (%d)", i+1),
			"url":     "/" + id,
			"website": "www.salesforce.com",
			"amount":  rng.Intn(100),
			"phone":   fmt.Sprintf("%d", rng.Int63n(9_000_000_000)+1_000_000_000),
			"closeAt": now.Add(time.Duration(rng.Intn(20)+1) * 24 * time.Hour),
		}
	}
	return records
}
