package writer

import (
	"context"
	"fmt"
	"maps"

	"github.com/vladislavdragonenkov/commerce-import/internal/domain"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/convert"
	"github.com/vladislavdragonenkov/commerce-import/internal/importer/region"
)

// CustomerConfig задаёт поведение писателя клиентов.
type CustomerConfig struct {
	// WithAddresses включает импорт адресов. Без него адреса записи игнорируются.
	WithAddresses bool
	// TitleCaseNames приводит имена клиента и адресатов к виду «Каждое Слово С Заглавной».
	TitleCaseNames bool
}

// CustomerWriter сохраняет клиентов вместе с адресами.
type CustomerWriter struct {
	customers domain.CustomerRepository
	regions   domain.RegionSource
	cfg       CustomerConfig
	opts      Options

	resolver *region.Resolver
}

// NewCustomerWriter создаёт писателя клиентов. regions может быть nil: тогда регионы не разрешаются.
func NewCustomerWriter(customers domain.CustomerRepository, regions domain.RegionSource, cfg CustomerConfig, options ...Option) *CustomerWriter {
	return &CustomerWriter{
		customers: customers,
		regions:   regions,
		cfg:       cfg,
		opts:      buildOptions("customer-writer", options),
	}
}

// Prepare загружает справочник регионов. Повторный вызов ничего не делает.
func (w *CustomerWriter) Prepare(ctx context.Context) error {
	if w.resolver != nil || !w.cfg.WithAddresses || w.regions == nil {
		return nil
	}

	regions, err := w.regions.ListRegions(ctx)
	if err != nil {
		return fmt.Errorf("load regions: %w", err)
	}
	w.resolver = region.NewResolver(
		region.Build(regions),
		region.WithLogger(w.opts.Logger),
		region.WithMissRecorder(w.opts.RegionMisses),
	)
	w.opts.Logger.WithField("regions", len(regions)).Debug("region table loaded")
	return nil
}

// WriteItem сохраняет одного клиента.
func (w *CustomerWriter) WriteItem(ctx context.Context, record domain.CustomerRecord) error {
	if w.cfg.TitleCaseNames {
		if err := titleCaseNames(&record); err != nil {
			return domain.NewWriterError("%v", err)
		}
	}

	customer := domain.Customer{
		Email:      record.Email,
		Firstname:  record.Firstname,
		Lastname:   record.Lastname,
		Attributes: maps.Clone(record.Attributes),
		CreatedAt:  w.opts.Now(),
	}

	if w.cfg.WithAddresses {
		for _, data := range record.Addresses {
			customer.AddAddress(w.buildAddress(data))
		}
	}

	if err := w.customers.Save(ctx, &customer); err != nil {
		message := err.Error()
		if record.Email != "" {
			message += " : " + record.Email
		}
		w.opts.Logger.WithError(err).WithField("email", record.Email).Warn("failed to save customer")
		return domain.NewSaveError(err, "%s", message)
	}
	return nil
}

func titleCaseNames(record *domain.CustomerRecord) error {
	names := map[string]string{"firstname": record.Firstname, "lastname": record.Lastname}
	if err := convert.Apply(convert.Ucwords, names, "firstname", "lastname"); err != nil {
		return err
	}
	record.Firstname, record.Lastname = names["firstname"], names["lastname"]

	addresses := make([]domain.AddressRecord, len(record.Addresses))
	for i, address := range record.Addresses {
		fields := map[string]string{"firstname": address.Firstname, "lastname": address.Lastname}
		if err := convert.Apply(convert.Ucwords, fields, "firstname", "lastname"); err != nil {
			return err
		}
		address.Firstname, address.Lastname = fields["firstname"], fields["lastname"]
		addresses[i] = address
	}
	record.Addresses = addresses
	return nil
}

func (w *CustomerWriter) buildAddress(data domain.AddressRecord) domain.Address {
	address := domain.Address{
		Firstname:         data.Firstname,
		Lastname:          data.Lastname,
		Street:            data.Street,
		City:              data.City,
		Postcode:          data.Postcode,
		Telephone:         data.Telephone,
		CountryID:         data.CountryID,
		Region:            data.Region,
		IsDefaultBilling:  true,
		IsDefaultShipping: true,
	}

	if data.Firstname != "" && data.Lastname != "" {
		address.Name = data.Firstname + " " + data.Lastname
	}

	if w.resolver != nil && data.Region != "" && data.CountryID != "" {
		if id, ok := w.resolver.Resolve(data.Region, data.CountryID, address.Name); ok {
			address.RegionID = id
			address.Region = ""
		}
	}
	return address
}

// Finish ничего не делает.
func (w *CustomerWriter) Finish(context.Context) error {
	return nil
}

// SoftFailures возвращает сообщения о ненайденных регионах.
func (w *CustomerWriter) SoftFailures() []string {
	if w.resolver == nil {
		return nil
	}
	return w.resolver.Messages()
}

// RegionErrors возвращает структурированные ошибки поиска регионов.
func (w *CustomerWriter) RegionErrors() []region.LookupError {
	if w.resolver == nil {
		return nil
	}
	return w.resolver.Errors()
}

var (
	_ Writer[domain.CustomerRecord] = (*CustomerWriter)(nil)
	_ SoftFailureReporter           = (*CustomerWriter)(nil)
)
