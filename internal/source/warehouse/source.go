// Package warehouse reads the report tables straight from BigQuery.
package warehouse

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/angelmondragon/sellerpulse-backend/internal/snapshot"
	"github.com/angelmondragon/sellerpulse-backend/pkg/config"
)

// rowReader is the part of *bigquery.RowIterator the source uses.
type rowReader interface {
	Next(dst any) error
}

type runner interface {
	Query(ctx context.Context, sql string, params []bigquery.QueryParameter) (*bigquery.RowIterator, error)
	TableRef(table string) string
}

// Source implements snapshot.Source over BigQuery.
type Source struct {
	run    func(ctx context.Context, st statement) (rowReader, error)
	tables tableRefs
}

type tableRefs struct {
	mapping  string
	business string
	ads      string
}

var _ snapshot.Source = (*Source)(nil)

// New builds a warehouse source from a BigQuery client and the table names.
func New(client runner, cfg config.BigQueryConfig) *Source {
	return &Source{
		run: func(ctx context.Context, st statement) (rowReader, error) {
			return client.Query(ctx, st.sql, st.params)
		},
		tables: tableRefs{
			mapping:  client.TableRef(cfg.AsinMappingTable),
			business: client.TableRef(cfg.BusinessReportTable),
			ads:      client.TableRef(cfg.AdsReportTable),
		},
	}
}

func (s *Source) FetchMapping(ctx context.Context, key snapshot.Key) ([]snapshot.IdentityRow, error) {
	return readAll(ctx, s, mappingStatement(s.tables.mapping, key), mappingRecord.toRow)
}

func (s *Source) FetchBusiness(ctx context.Context, key snapshot.Key) ([]snapshot.BusinessRow, error) {
	return readAll(ctx, s, businessStatement(s.tables.business, key), businessRecord.toRow)
}

func (s *Source) FetchAds(ctx context.Context, key snapshot.Key) ([]snapshot.AdsRow, error) {
	return readAll(ctx, s, adsStatement(s.tables.ads, key), adsRecord.toRow)
}

func (s *Source) FetchSellers(ctx context.Context) ([]snapshot.SellerRow, error) {
	return readAll(ctx, s, sellersStatement(s.tables.mapping), sellerRecord.toRow)
}

// readAll drains a query, converting each record and skipping the ones
// that cannot be keyed.
func readAll[R any, T any](ctx context.Context, s *Source, st statement, convert func(R) (T, bool)) ([]T, error) {
	it, err := s.run(ctx, st)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	out := []T{}
	for {
		var rec R
		err := it.Next(&rec)
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if row, ok := convert(rec); ok {
			out = append(out, row)
		}
	}
}
