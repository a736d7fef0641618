package kafka

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBookingEvent(t *testing.T) {
	msg := kafka.Message{Value: []byte(`{"id":"e1","type":"booking_confirmed","booking_id":7,"check_in":"2024-02-01","check_out":"2024-02-05","nights":4,"status":"CONFIRMED"}`)}

	event, err := DecodeBookingEvent(msg)

	require.NoError(t, err)
	assert.Equal(t, "booking_confirmed", event.Type)
	assert.Equal(t, int64(7), event.BookingID)
	assert.Equal(t, 4, event.Nights)
}

func TestDecodeBookingEvent_Malformed(t *testing.T) {
	_, err := DecodeBookingEvent(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
