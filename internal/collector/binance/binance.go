package binance

import (
	"context"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/velalab/vela/internal/collector"
	"github.com/velalab/vela/internal/core"
	"github.com/velalab/vela/internal/logger"
)

// Binance caps a single klines request at 1000 candles.
const pageLimit = 1000

// Provider fetches historical klines from the Binance spot API.
type Provider struct {
	client *binance.Client
	log    *zap.Logger
}

// New creates a Binance provider. API credentials are optional for
// public market data.
func New(apiKey, secretKey string, log *zap.Logger) *Provider {
	if log == nil {
		log = logger.Nop()
	}
	return &Provider{
		client: binance.NewClient(apiKey, secretKey),
		log:    log,
	}
}

func (p *Provider) Name() string {
	return "binance"
}

// FetchHistory pages through the klines endpoint until the requested
// range is covered, retrying transient failures with exponential backoff.
func (p *Provider) FetchHistory(ctx context.Context, symbol string, start, end time.Time, interval string) ([]core.OHLCV, error) {
	if err := collector.ValidateSymbol(symbol); err != nil {
		return nil, core.WrapError(core.ErrCollectorFailed, err)
	}
	if core.IntervalMinutes(interval) == 0 {
		return nil, core.Errorf(core.ErrCollectorFailed, "unsupported interval: %s", interval)
	}
	if !start.Before(end) {
		return nil, core.Errorf(core.ErrCollectorFailed, "start %s is not before end %s", start, end)
	}

	var bars []core.OHLCV
	cursor := start

	for cursor.Before(end) {
		klines, err := p.fetchPage(ctx, symbol, cursor, end, interval)
		if err != nil {
			return nil, core.WrapError(core.ErrCollectorFailed, err)
		}
		if len(klines) == 0 {
			break
		}

		for _, k := range klines {
			bar, err := toBar(k, symbol, interval)
			if err != nil {
				return nil, core.WrapError(core.ErrDataQuality, err)
			}
			bars = append(bars, bar)
		}

		last := klines[len(klines)-1]
		cursor = time.UnixMilli(last.CloseTime).Add(time.Millisecond)

		if len(klines) < pageLimit {
			break
		}
	}

	if len(bars) == 0 {
		return nil, core.ErrNoData
	}
	if err := collector.ValidateSeries(bars); err != nil {
		return nil, err
	}

	p.log.Debug("fetched klines",
		zap.String("symbol", symbol),
		zap.String("interval", interval),
		zap.Int("candles", len(bars)))

	return bars, nil
}

func (p *Provider) fetchPage(ctx context.Context, symbol string, start, end time.Time, interval string) ([]*binance.Kline, error) {
	var klines []*binance.Kline
	operation := func() error {
		var err error
		klines, err = p.client.NewKlinesService().
			Symbol(symbol).
			Interval(interval).
			StartTime(start.UnixMilli()).
			EndTime(end.UnixMilli()).
			Limit(pageLimit).
			Do(ctx)
		if err != nil {
			p.log.Warn("klines request failed, retrying", zap.Error(err))
		}
		return err
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, err
	}
	return klines, nil
}

func toBar(k *binance.Kline, symbol, interval string) (core.OHLCV, error) {
	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return core.OHLCV{}, err
	}
	high, err := strconv.ParseFloat(k.High, 64)
	if err != nil {
		return core.OHLCV{}, err
	}
	low, err := strconv.ParseFloat(k.Low, 64)
	if err != nil {
		return core.OHLCV{}, err
	}
	closePrice, err := strconv.ParseFloat(k.Close, 64)
	if err != nil {
		return core.OHLCV{}, err
	}
	volume, err := strconv.ParseFloat(k.Volume, 64)
	if err != nil {
		return core.OHLCV{}, err
	}

	return core.OHLCV{
		Symbol:   symbol,
		Interval: interval,
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
		Time:     time.UnixMilli(k.OpenTime),
	}, nil
}
