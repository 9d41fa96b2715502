package kafka

// Топики событий заказов.
const (
	// TopicOrderEvents — основной поток событий жизненного цикла заказа.
	TopicOrderEvents = "cafe.order.events"
	// TopicDeadLetterQueue принимает события, которые не удалось
	// доставить после всех повторных попыток.
	TopicDeadLetterQueue = "cafe.order.dlq"
)

// Заголовки сообщений: тип события и заказ-агрегат дублируются в headers,
// чтобы consumer мог фильтровать поток без разбора payload.
const (
	HeaderEventType   = "x-event-type"
	HeaderAggregateID = "x-aggregate-id"
)
