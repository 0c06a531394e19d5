package fyeah_test

import (
	"fmt"
	"strings"

	"github.com/fyeah-lang/fyeah/pkg/fyeah"
)

// ExampleF renders a template in one call
func ExampleF() {
	env := fyeah.Vars(map[string]interface{}{"name": "world", "width": 9})

	out, err := fyeah.F("hello {name!r:>{width}} {{braces}}", env)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(out)
	// Output: hello   'world' {braces}
}

// ExampleCompile parses once and renders against several environments
func ExampleCompile() {
	tpl := fyeah.MustCompile("{item:<6}|{price:>8,.2f}")

	for _, row := range []map[string]interface{}{
		{"item": "tea", "price": 3.5},
		{"item": "piano", "price": 12000},
	} {
		out, _ := tpl.Render(fyeah.Vars(row))
		fmt.Println(out)
	}
	fmt.Println(tpl.Expressions())
	// Output:
	// tea   |    3.50
	// piano |12,000.00
	// [item price]
}

// ExampleT inspects the evaluated sites before formatting
func ExampleT() {
	result, _ := fyeah.T("{user=} has {n:03d} items", fyeah.Vars(map[string]interface{}{"user": "ann", "n": 7}))

	for _, ip := range result.Interpolations {
		fmt.Printf("%s -> %v (conv %q, spec %q)\n", ip.Expression, ip.Value, ip.Conversion, ip.FormatSpec)
	}
	out, _ := result.Render()
	fmt.Println(out)
	// Output:
	// user -> ann (conv "r", spec "")
	// n -> 7 (conv "", spec "03d")
	// user='ann' has 007 items
}

// ExampleFunc exposes a Go function with keyword arguments
func ExampleFunc() {
	shout := fyeah.Func("shout", func(args []interface{}, kwargs map[string]interface{}) (interface{}, error) {
		s := strings.ToUpper(fmt.Sprint(args[0]))
		if n, ok := kwargs["times"].(int64); ok {
			s = strings.Repeat(s, int(n))
		}
		return s, nil
	})

	out, _ := fyeah.F("{shout('hey', times=2)}", fyeah.Vars(map[string]interface{}{"shout": shout}))
	fmt.Println(out)
	// Output: HEYHEY
}

// ExampleIsKind matches errors by their Python exception class
func ExampleIsKind() {
	_, err := fyeah.F("{nme}", fyeah.Vars(map[string]interface{}{"name": 1}))

	fmt.Println(fyeah.IsKind(err, fyeah.NameError))
	fmt.Println(err)
	// Output:
	// true
	// NameError: name 'nme' is not defined. Did you mean: 'name'?
}
