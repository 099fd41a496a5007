package extract

import (
	"strings"
	"testing"
)

func BenchmarkFromHTML(b *testing.B) {
	small := []byte("<html><head><title>t</title></head><body><p>a</p></body></html>")
	medium := makeHTML(50)
	large := makeHTML(400)

	b.Run("small", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = FromHTML(small)
		}
	})
	b.Run("medium", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = FromHTML(medium)
		}
	})
	b.Run("large", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = FromHTML(large)
		}
	})
}

func makeHTML(paras int) []byte {
	var sb strings.Builder
	sb.WriteString("<html><head><title>demo</title></head><body><nav><a href='/'>home</a></nav>")
	for i := 0; i < paras; i++ {
		sb.WriteString("<h2>Heading</h2><p>")
		sb.WriteString("Kohlenstoffdioxid ist eine chemische Verbindung aus Kohlenstoff und Sauerstoff. ")
		sb.WriteString("</p><div>side <span>note</span></div>")
	}
	sb.WriteString("<footer>f</footer></body></html>")
	return []byte(sb.String())
}
