package tenancy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/pyme-stock-api/internal/application/tenancy"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Panadería Ñandú S.A.S.": "panaderia-nandu-s-a-s",
		"  Café  Olé  ":          "cafe-ole",
		"Tienda 24/7":            "tienda-24-7",
		"!!":                     "",
		"x":                      "",
	}
	for in, want := range cases {
		assert.Equal(t, want, tenancy.Slugify(in), in)
	}
}
