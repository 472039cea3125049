package i18n

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFor(t *testing.T) {
	assert.Equal(t, Russian, For("ru").Language)
	assert.Equal(t, Russian, For(" RU ").Language)
	assert.Equal(t, English, For("en").Language)
	assert.Equal(t, English, For("de").Language)
	assert.Equal(t, English, For("").Language)
}

func TestViewProtocol(t *testing.T) {
	assert.Equal(t, "View Острый бронхит Protocol", For("en").ViewProtocol("Острый бронхит"))
	assert.Equal(t, "Посмотреть протокол Плеврит", For("ru").ViewProtocol("Плеврит"))
}

func TestToggle(t *testing.T) {
	assert.Equal(t, Russian, Toggle(English))
	assert.Equal(t, English, Toggle(Russian))
}

func TestTablesComplete(t *testing.T) {
	for _, s := range []Strings{en, ru} {
		v := reflect.ValueOf(s)
		for i := 0; i < v.NumField(); i++ {
			assert.NotEmpty(t, v.Field(i).Interface(), "%s: %s is empty", s.Language, v.Type().Field(i).Name)
		}
	}
}

func TestRussianAssistantTexts(t *testing.T) {
	ru := For("ru")
	assert.Equal(t, "По описанию возможны следующие варианты диагнозов:", ru.DiagnosesFound)
	assert.Equal(t, "Не удалось подобрать диагнозы. Опишите симптомы подробнее.", ru.NeedMoreDetail)
	assert.Equal(t, "Ошибка при обращении к серверу. Проверьте, что бэкенд запущен.", ru.ConnectionFailed)
}
