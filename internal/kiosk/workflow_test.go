package kiosk

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecobins-kiosk/internal/models"
	"ecobins-kiosk/internal/shared"
)

func TestButtonWithoutSessionIsNoop(t *testing.T) {
	h := newHarness(t)
	before := h.c.Status()

	h.press()
	h.press()

	assert.Equal(t, before.Step, h.c.Status().Step)
	assert.Empty(t, h.act.pulses)
}

func TestButtonWhileAwaitingQRIsNoop(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")

	h.press()

	assert.Equal(t, models.StepAwaitingQR, h.c.Status().Step)
}

func TestQRWithoutWeightGoesToWeightStep(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")

	h.msg(models.DEFAULT_TOPIC_QR, "XYZ")

	st := h.c.Status()
	assert.Equal(t, models.StepAwaitingWeight, st.Step)
	assert.Equal(t, "XYZ", st.Record.QR)
}

func TestInvalidQRKeepsAwaitingQR(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")

	h.msg(models.DEFAULT_TOPIC_QR, models.INVALID_QR_CODE)

	st := h.c.Status()
	assert.Equal(t, models.StepAwaitingQR, st.Step)
	assert.Equal(t, "", st.Record.QR)
	assert.Equal(t, [2]string{models.MSG_INVALID_QR, models.MSG_READ_AGAIN}, h.disp.last())
}

func TestQRIgnoredWithoutSession(t *testing.T) {
	h := newHarness(t)

	h.msg(models.DEFAULT_TOPIC_QR, "XYZ")

	assert.Equal(t, "", h.c.Status().Record.QR)
}

func TestSecondQRMidCycleIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")
	h.msg(models.DEFAULT_TOPIC_QR, "XYZ")

	h.msg(models.DEFAULT_TOPIC_QR, "OTRO")

	st := h.c.Status()
	assert.Equal(t, "XYZ", st.Record.QR)
	assert.Equal(t, models.StepAwaitingWeight, st.Step)
}

func TestFullCycleSnapshotsAndPublishes(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")

	h.msg(models.DEFAULT_TOPIC_QR, "XYZ")
	h.msg(models.DEFAULT_TOPIC_SENSORS, `{"peso": 4}`)
	h.press()

	st := h.c.Status()
	require.Equal(t, models.StepAwaitingColor, st.Step)
	assert.Equal(t, 4, st.Record.Weight)

	// Lecturas posteriores al snapshot no modifican el registro
	h.msg(models.DEFAULT_TOPIC_SENSORS, `{"peso": 9}`)
	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Azul"}`)
	h.press()

	st = h.c.Status()
	require.Equal(t, models.StepAwaitingRecycle, st.Step)
	assert.Equal(t, 4, st.Record.Weight)
	assert.Equal(t, models.ColorAzul, st.Record.Color)

	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Gris"}`)
	h.press()

	st = h.c.Status()
	assert.Equal(t, models.StepAwaitingQR, st.Step)
	assert.Equal(t, "", st.Record.QR)
	assert.Equal(t, 0, st.Record.Weight)
	assert.Equal(t, models.DefaultColor, st.Record.Color)
	assert.True(t, st.Session.Authorized, "la sesión sigue abierta tras reciclar")
	assert.Equal(t, [2]string{"Reciclada +20 pts", models.MSG_SCAN_QR}, h.disp.last())

	assert.Equal(t, []models.ColorCode{models.ColorAzul}, h.act.pulses)

	out := h.pub.on(models.DEFAULT_TOPIC_RECYCLED)
	require.Len(t, out, 1)
	var payload models.RecyclePayload
	require.NoError(t, json.Unmarshal([]byte(out[0]), &payload))
	assert.Equal(t, models.RecyclePayload{User: "abc123", QR: "XYZ", Peso: 4, Color: "Azul", ID: 1}, payload)

	last := h.journal.entries[len(h.journal.entries)-1]
	assert.Equal(t, models.JournalRecycle, last.Kind)
	assert.Equal(t, "PLASTICO", last.Tipo)
	assert.Equal(t, 20, last.Puntos)
}

func TestQRSkipsToColorWhenWeightStored(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")
	h.msg(models.DEFAULT_TOPIC_SENSORS, `{"peso": 4}`)
	h.msg(models.DEFAULT_TOPIC_QR, "A1")
	h.press()
	require.Equal(t, 4, h.c.Status().Record.Weight)

	// El peso almacenado sobrevive al logout y al siguiente login
	require.Equal(t, models.TagLogout, h.c.TagScanned(context.Background(), "abc123"))
	assert.Equal(t, 4, h.c.Status().Record.Weight)
	h.login(t, "0a1b2c3d")

	h.msg(models.DEFAULT_TOPIC_QR, "A2")

	st := h.c.Status()
	assert.Equal(t, models.StepAwaitingColor, st.Step)
	assert.Equal(t, "A2", st.Record.QR)
	assert.Equal(t, 4, st.Record.Weight)
	assert.Equal(t, [2]string{"QR A2", models.MSG_PRESS_FOR_COLOR}, h.disp.last())

	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Rosa"}`)
	h.press()
	h.press()

	out := h.pub.on(models.DEFAULT_TOPIC_RECYCLED)
	require.Len(t, out, 1)
	var payload models.RecyclePayload
	require.NoError(t, json.Unmarshal([]byte(out[0]), &payload))
	assert.Equal(t, models.RecyclePayload{User: "0a1b2c3d", QR: "A2", Peso: 4, Color: "Rosa", ID: 1}, payload)

	// Reciclar borra el peso: el próximo QR vuelve a pedirlo
	h.msg(models.DEFAULT_TOPIC_QR, "A3")
	assert.Equal(t, models.StepAwaitingWeight, h.c.Status().Step)
}

func TestMotorCloseClearsStoredWeight(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")
	h.msg(models.DEFAULT_TOPIC_SENSORS, `{"peso": 4}`)
	h.msg(models.DEFAULT_TOPIC_QR, "A1")
	h.press()
	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_OPEN)

	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_CLOSE)

	assert.Equal(t, 0, h.c.Status().Record.Weight)
	h.login(t, "abc123")
	h.msg(models.DEFAULT_TOPIC_QR, "A2")
	assert.Equal(t, models.StepAwaitingWeight, h.c.Status().Step)
	assert.Equal(t, [2]string{"QR A2", models.MSG_PLACE_BAG}, h.disp.last())
}

func TestSnapshotReadsLatestCachedValue(t *testing.T) {
	h := newHarness(t)
	h.msg(models.DEFAULT_TOPIC_SENSORS, "peso:3")
	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Gris"}`)
	h.login(t, "abc123")
	h.msg(models.DEFAULT_TOPIC_QR, "XYZ")

	h.msg(models.DEFAULT_TOPIC_SENSORS, "peso:7")
	h.press()
	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Azul"}`)
	h.press()

	st := h.c.Status()
	assert.Equal(t, 7, st.Record.Weight)
	assert.Equal(t, models.ColorAzul, st.Record.Color)
}

func TestStepIsMonotonicPerCycle(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")

	var steps []models.WorkflowStep
	record := func() { steps = append(steps, h.c.Status().Step) }

	record()
	h.msg(models.DEFAULT_TOPIC_QR, "XYZ")
	record()
	h.msg(models.DEFAULT_TOPIC_QR, "ABC")
	record()
	h.press()
	record()
	h.press()
	record()
	h.press()
	record()

	assert.Equal(t, []models.WorkflowStep{
		models.StepAwaitingQR,
		models.StepAwaitingWeight,
		models.StepAwaitingWeight,
		models.StepAwaitingColor,
		models.StepAwaitingRecycle,
		models.StepAwaitingQR,
	}, steps)
}

func TestMalformedReadingsKeepCachedValues(t *testing.T) {
	h := newHarness(t)
	h.msg(models.DEFAULT_TOPIC_SENSORS, `{"peso": 5}`)
	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Azul"}`)

	h.msg(models.DEFAULT_TOPIC_SENSORS, `{"peso": "x"`)
	h.msg(models.DEFAULT_TOPIC_SENSORS, "basura")
	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Verde"}`)
	h.msg(models.DEFAULT_TOPIC_COLORS, "???")

	st := h.c.Status()
	assert.Equal(t, 5, st.LiveWeight)
	assert.Equal(t, models.ColorAzul, st.LiveColor)
}

func TestMotorOpenBlockedByCapacity(t *testing.T) {
	h := newHarness(t)
	h.capacity.allowed = false

	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_OPEN)

	assert.Empty(t, h.act.pulses)
	assert.False(t, h.c.Status().MotorActive)
	assert.Equal(t, 1, h.capacity.calls)
	assert.Equal(t, [2]string{models.MSG_CAPACITY_FULL, models.MSG_MOTOR_OFF}, h.disp.last())
}

func TestMotorOpenChecksCapacityEveryTime(t *testing.T) {
	h := newHarness(t)
	h.capacity.allowed = false
	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_OPEN)
	h.capacity.allowed = true
	h.msg(models.DEFAULT_TOPIC_COLORS, `{"color": "Gris"}`)

	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_OPEN)

	assert.Equal(t, 2, h.capacity.calls)
	assert.True(t, h.c.Status().MotorActive)
	assert.Equal(t, []models.ColorCode{models.ColorGris}, h.act.pulses)

	// Con el ciclo activo, otro OPEN no vuelve a consultar ni pulsar
	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_OPEN)
	assert.Equal(t, 2, h.capacity.calls)
	assert.Len(t, h.act.pulses, 1)
}

func TestMotorCloseEndsActiveCycleAndSession(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")
	h.msg(models.DEFAULT_TOPIC_QR, "XYZ")
	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_OPEN)
	require.True(t, h.c.Status().MotorActive)

	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_CLOSE)

	st := h.c.Status()
	assert.False(t, st.MotorActive)
	assert.False(t, st.Session.Authorized)
	assert.Equal(t, models.StepAwaitingQR, st.Step)
	assert.Equal(t, "", st.Record.QR)
	assert.Equal(t, 1, h.act.idles)
	assert.Equal(t, []string{models.ACCESS_LOGIN}, h.pub.on(models.DEFAULT_TOPIC_ACCESS))
}

func TestMotorCloseWithoutCycleOnlyIdles(t *testing.T) {
	h := newHarness(t)
	h.login(t, "abc123")

	h.msg(models.DEFAULT_TOPIC_MOTOR, models.MOTOR_CMD_CLOSE)

	assert.True(t, h.c.Status().Session.Authorized)
	assert.Equal(t, 1, h.act.idles)
}

func TestPollDrainsQueuesInOrder(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.c.SubmitTag("abc123", "test"))
	require.NoError(t, h.c.EnqueueMessage(models.DEFAULT_TOPIC_QR, []byte("XYZ")))
	require.NoError(t, h.c.EnqueueMessage(models.DEFAULT_TOPIC_SENSORS, []byte(`{"peso": 2}`)))
	assert.True(t, h.c.PressButton("test"))

	h.c.Poll(ctx)

	st := h.c.Status()
	assert.True(t, st.Session.Authorized)
	assert.Equal(t, models.StepAwaitingColor, st.Step)
	assert.Equal(t, 2, st.Record.Weight)
}

func TestEnqueueMessageDropsWhenInboxFull(t *testing.T) {
	c := NewController(Settings{Topics: testTopics}, Deps{Channels: shared.NewChannelManager(0, 0, 1)})
	require.NoError(t, c.EnqueueMessage(models.DEFAULT_TOPIC_QR, []byte("XYZ")))

	start := time.Now()
	err := c.EnqueueMessage(models.DEFAULT_TOPIC_SENSORS, []byte(`{"peso": 2}`))

	assert.ErrorIs(t, err, ErrInboxFull)
	assert.Less(t, time.Since(start), time.Second, "el callback MQTT no debe quedar bloqueado")
	assert.Equal(t, uint64(1), c.Channels().Inbox().Stats().Dropped)
}

func TestPressButtonDropsWhenQueueFull(t *testing.T) {
	h := newHarness(t)

	accepted := 0
	for i := 0; i < 10; i++ {
		if h.c.PressButton("test") {
			accepted++
		}
	}

	assert.Equal(t, h.c.Channels().Buttons().Cap(), accepted)
}
