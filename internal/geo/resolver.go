package geo

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// Location результат геолокации; каждое поле независимо может отсутствовать
type Location struct {
	Country *string
	Region  *string
	City    *string
}

// Resolver определяет геолокацию по IP адресу. Обогащение best-effort:
// пустой результат не является ошибкой.
type Resolver interface {
	Lookup(ipAddress string) Location
	Close() error
}

// New создает резолвер поверх базы MaxMind GeoLite2. При пустом пути
// возвращается no-op резолвер: сервис работает без геоданных.
func New(dbPath string, log *zap.Logger) (Resolver, error) {
	if dbPath == "" {
		log.Info("geo database not configured, clicks will be recorded without geo data")
		return &noopResolver{}, nil
	}

	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database: %w", err)
	}

	log.Info("geo database loaded", zap.String("path", dbPath))
	return &maxmindResolver{reader: reader, log: log}, nil
}

// maxmindResolver реализует Resolver поверх geoip2
type maxmindResolver struct {
	reader *geoip2.Reader
	log    *zap.Logger
}

func (r *maxmindResolver) Lookup(ipAddress string) Location {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return Location{}
	}

	record, err := r.reader.City(ip)
	if err != nil {
		r.log.Debug("geo lookup failed", zap.String("ip", ipAddress), zap.Error(err))
		return Location{}
	}

	var loc Location
	if record.Country.IsoCode != "" {
		country := record.Country.IsoCode
		loc.Country = &country
	}
	if len(record.Subdivisions) > 0 && record.Subdivisions[0].Names["en"] != "" {
		region := record.Subdivisions[0].Names["en"]
		loc.Region = &region
	}
	if record.City.Names["en"] != "" {
		city := record.City.Names["en"]
		loc.City = &city
	}
	return loc
}

func (r *maxmindResolver) Close() error {
	return r.reader.Close()
}

type noopResolver struct{}

func (noopResolver) Lookup(string) Location { return Location{} }
func (noopResolver) Close() error           { return nil }
