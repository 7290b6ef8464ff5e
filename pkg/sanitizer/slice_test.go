package sanitizer

import (
	"reflect"
	"testing"
)

func TestNormalizeLabels(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{
			name:  "trim and collapse",
			input: []string{"  Nome do   Visitante ", "Tipo de Visita"},
			want:  []string{"Nome do Visitante", "Tipo de Visita"},
		},
		{
			name:  "remove duplicates keeping order",
			input: []string{"Observações", "Tipo de Visita", "Observações"},
			want:  []string{"Observações", "Tipo de Visita"},
		},
		{
			name:  "filter empty strings",
			input: []string{"", "  ", "Data da Visita"},
			want:  []string{"Data da Visita"},
		},
		{
			name:  "nil input",
			input: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLabels(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeLabels(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
