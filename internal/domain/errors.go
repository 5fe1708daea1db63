package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCustomerNotFound возвращается, если клиент не найден по атрибуту.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар с указанным SKU отсутствует.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrParentNotConfigurable — родительский товар не является configurable.
	ErrParentNotConfigurable = errors.New("parent product is not configurable")
	// ErrUnknownAttribute — атрибут не входит в набор атрибутов товара.
	ErrUnknownAttribute = errors.New("attribute does not exist")
	// ErrAttributeValueRequired — пустое значение атрибута передано в хранилище.
	ErrAttributeValueRequired = errors.New("attribute value is required")
	// ErrRefundExceedsOrdered — запрошенный возврат превышает доступное к возврату количество.
	ErrRefundExceedsOrdered = errors.New("refund qty exceeds refundable qty")
	// ErrInvalidRefundQty — отрицательное количество к возврату.
	ErrInvalidRefundQty = errors.New("refund qty must be positive")
	// ErrNothingToShip — у заказа не осталось позиций для отгрузки.
	ErrNothingToShip = errors.New("order has no items to ship")
	// ErrCustomerRequired — у заказа не указан клиент.
	ErrCustomerRequired = errors.New("customer id is required")
	// ErrItemsRequired — заказ без позиций.
	ErrItemsRequired = errors.New("order must contain items")
	// ErrTotalsMismatch — итог заказа не сходится с суммой слагаемых.
	ErrTotalsMismatch = errors.New("order grand total mismatch")
	// ErrOrderVersionConflict — заказ изменён параллельно (optimistic locking).
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrAggregateExists — агрегат с таким бизнес-ключом уже сохранён.
	ErrAggregateExists = errors.New("aggregate already exists")
)

// WriterError — ошибка валидации записи: не хватает поля или не найдена связанная сущность.
// Такие ошибки не затрагивают хранилище, драйвер может пропустить запись и продолжить.
type WriterError struct {
	Message string
}

// NewWriterError форматирует сообщение об ошибке валидации.
func NewWriterError(format string, args ...any) *WriterError {
	return &WriterError{Message: fmt.Sprintf(format, args...)}
}

func (e *WriterError) Error() string {
	return e.Message
}

// SaveError — отказ коллаборатора при сохранении агрегата.
// К моменту возврата компенсирующие действия (удаление частично сохранённого) уже выполнены.
type SaveError struct {
	Message string
	Err     error
}

// NewSaveError оборачивает ошибку хранилища в SaveError с контекстным сообщением.
func NewSaveError(err error, format string, args ...any) *SaveError {
	return &SaveError{Message: fmt.Sprintf(format, args...), Err: err}
}

func (e *SaveError) Error() string {
	return e.Message
}

func (e *SaveError) Unwrap() error {
	return e.Err
}

// IsWriterError проверяет, является ли ошибка ошибкой валидации записи.
func IsWriterError(err error) bool {
	var target *WriterError
	return errors.As(err, &target)
}

// IsSaveError проверяет, является ли ошибка ошибкой сохранения.
func IsSaveError(err error) bool {
	var target *SaveError
	return errors.As(err, &target)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий заказа.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}

// IsProductNotFound проверяет, что товар отсутствует.
func IsProductNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound)
}

// IsOrderNotFound проверяет, что заказ отсутствует.
func IsOrderNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound)
}
