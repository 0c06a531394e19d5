package evaluator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyeah-lang/fyeah/internal/compiler/errors"
)

func TestBuiltins_Functions(t *testing.T) {
	vars := map[string]interface{}{
		"size":  func(s string) int { return len(s) },
		"words": []string{"bb", "a", "ccc"},
	}

	tests := []struct {
		source string
		want   string
	}{
		{"{sorted([3, 1, 2])}", "[1, 2, 3]"},
		{"{sorted(words, key=size, reverse=True)}", "['ccc', 'bb', 'a']"},
		{"{sorted(words, key=size)}", "['a', 'bb', 'ccc']"},
		{"{round(2.5)} {round(3.5)}", "2 4"},
		{"{round(3.14159, 2)}", "3.14"},
		{"{round(1250, -2)} {round(1350, -2)}", "1200 1400"},
		{"{divmod(-7, 2)}", "(-4, 1)"},
		{"{divmod(7.5, 2)}", "(3.0, 1.5)"},
		{"{pow(3, 4, 5)} {pow(2, 10)}", "1 1024"},
		{"{pow(3, 2, -5)}", "-1"},
		{"{list(zip([1, 2, 3], 'ab'))}", "[(1, 'a'), (2, 'b')]"},
		{"{enumerate(['x', 'y'], start=1)}", "[(1, 'x'), (2, 'y')]"},
		{"{min(3, 1, 2)} {max([1, 5, 2])}", "1 5"},
		{"{max(words, key=size)}", "ccc"},
		{"{max([], default='none')}", "none"},
		{"{sum([1, 2, 3])} {sum([0.5, 0.25], 1)}", "6 1.75"},
		{"{int('0x1f', 0)} {int('1_000')} {int('ff', 16)} {int(-2.7)}", "31 1000 255 -2"},
		{"{float('1e3')} {float(' 2.5 ')} {float('-inf')}", "1000.0 2.5 -inf"},
		{"{hex(255)} {oct(8)} {bin(-5)}", "0xff 0o10 -0b101"},
		{"{chr(65)}{ord('a')}", "A97"},
		{"{type(1)} {type('s')}", "<class 'int'> <class 'str'>"},
		{"{any([0, '', 1])} {all([])} {all([1, 0])}", "True True False"},
		{"{list(range(5, 0, -2))} {range(3)}", "[5, 3, 1] [0, 1, 2]"},
		{"{reversed('abc')}", "['c', 'b', 'a']"},
		{"{dict(a=1, b=2)} {dict([('k', 'v')])}", "{'a': 1, 'b': 2} {'k': 'v'}"},
		{"{tuple([1])} {list('ab')}", "(1,) ['a', 'b']"},
		{"{bool([])} {bool('x')}", "False True"},
		{"{abs(-3.5)} {abs(-2)}", "3.5 2"},
		{"{len(words)} {len('héllo')}", "3 5"},
		{"{format(3.14159, '.1f')} {format(7)}", "3.1 7"},
		{"{str()}|{str(None)}|{repr('a')}|{ascii('é')}", "|None|'a'|'\\xe9'"},
		{"{int is int}", "True"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.source, vars))
		})
	}
}

func TestBuiltins_Methods(t *testing.T) {
	vars := map[string]interface{}{
		"d":     map[string]interface{}{"a": 1},
		"path":  "/usr/local/bin",
		"lines": "a\nb\r\nc\n",
	}

	tests := []struct {
		source string
		want   string
	}{
		{"{'a,b,c'.split(',', 1)}", "['a', 'b,c']"},
		{"{'a,b,c'.rsplit(',', maxsplit=1)}", "['a,b', 'c']"},
		{"{'  x  y '.split()}", "['x', 'y']"},
		{"{'  x  y  z'.split(None, 1)}", "['x', 'y  z']"},
		{"{path.split('/')}", "['', 'usr', 'local', 'bin']"},
		{"{lines.splitlines()}", "['a', 'b', 'c']"},
		{"{'hello world'.title()} {'Hello'.swapcase()} {'hELLO'.capitalize()}", "Hello World hELLO Hello"},
		{"{'abc'.center(6, '*')} {'ab'.ljust(4, '.')} {'ab'.rjust(4)}", "*abc** ab..   ab"},
		{"{'42'.zfill(5)} {'-42'.zfill(5)}", "00042 -0042"},
		{"{'hello'.find('l')} {'hello'.rfind('l')} {'hello'.find('z')} {'hello'.find('l', 3)}", "2 3 -1 3"},
		{"{'hello'.count('l')} {'abc'.count('')}", "2 4"},
		{"{'hello'.startswith(('x', 'he'))} {'hello'.endswith('lo', 0, 4)}", "True False"},
		{"{'aaa'.replace('a', 'b', 2)} {'aaa'.replace('a', 'c')}", "bba ccc"},
		{"{'xxhixx'.strip('x')}|{'  pad '.lstrip()}|{'  pad '.rstrip()}", "hi|pad |  pad"},
		{"{'123'.isdigit()} {'abc'.isalpha()} {'ABC'.isupper()} {''.islower()}", "True True True False"},
		{"{'{} and {name}'.format(1, name='n')}", "1 and n"},
		{"{'{0:>{1}}'.format('a', 3)}", "  a"},
		{"{'{0!r} {0[1]}'.format('ab')}", "'ab' b"},
		{"{'{{}}'.format()}", "{}"},
		{"{[1, 2, 1].count(1)} {(1, 2).index(2)}", "2 1"},
		{"{d.get('z', 0)} {d.get('a')} {d.keys()} {d.values()} {d.items()}", "0 1 ['a'] [1] [('a', 1)]"},
		{"{'ab'.upper}", "<built-in method upper of str object>"},
		{"{'-'.join(['a', 'b'])}", "a-b"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.source, vars))
		})
	}
}

func TestBuiltins_Errors(t *testing.T) {
	tests := []struct {
		source  string
		code    errors.ErrorCode
		message string
	}{
		{"{int('abc')}", errors.ErrInvalidValue, "invalid literal for int() with base 10: 'abc'"},
		{"{int('12', 1)}", errors.ErrInvalidValue, "int() base must be >= 2 and <= 36, or 0"},
		{"{float('x')}", errors.ErrInvalidValue, "could not convert string to float: 'x'"},
		{"{chr(-1)}", errors.ErrInvalidValue, "chr() arg not in range(0x110000)"},
		{"{ord('ab')}", errors.ErrInvalidArguments, "ord() expected a character, but string of length 2 found"},
		{"{pow(2, -1, 5)}", errors.ErrInvalidValue, "pow() 2nd argument cannot be negative when 3rd argument specified"},
		{"{pow(2, 3, 0)}", errors.ErrInvalidValue, "pow() 3rd argument cannot be 0"},
		{"{max([])}", errors.ErrInvalidValue, "max() iterable argument is empty"},
		{"{min(1, 2, default=0)}", errors.ErrInvalidArguments, "Cannot specify a default for min() with multiple positional arguments"},
		{"{len()}", errors.ErrInvalidArguments, "len() takes exactly one argument (0 given)"},
		{"{'a'.upper(1)}", errors.ErrInvalidArguments, "upper() takes no arguments (1 given)"},
		{"{divmod(1)}", errors.ErrInvalidArguments, "divmod expected 2 arguments, got 1"},
		{"{sum(['a'], '')}", errors.ErrInvalidArguments, "sum() can't sum strings [use ''.join(seq) instead]"},
		{"{range(1, 2, 0)}", errors.ErrInvalidValue, "range() arg 3 must not be zero"},
		{"{divmod(1, 0)}", errors.ErrZeroDivision, "integer division or modulo by zero"},
		{"{'a'.split('')}", errors.ErrInvalidValue, "empty separator"},
		{"{','.join([1])}", errors.ErrInvalidArguments, "sequence item 0: expected str instance, int found"},
		{"{[1].index(2)}", errors.ErrInvalidValue, "2 is not in list"},
		{"{'{}'.format()}", errors.ErrIndexOutOfRange, "Replacement index out of range"},
		{"{'{0}{}'.format(1, 2)}", errors.ErrInvalidValue, "cannot switch from manual field specification to automatic field numbering"},
		{"{'{x}'.format()}", errors.ErrMissingKey, "'x'"},
		{"{'ab'.center(5, 'xy')}", errors.ErrInvalidArguments, "The fill character must be exactly one character long"},
		{"{round('a')}", errors.ErrInvalidArguments, "type str doesn't define __round__ method"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			err := renderErr(t, tt.source, nil)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
		})
	}
}

func TestBuiltins_SortedUnorderable(t *testing.T) {
	err := renderErr(t, "{sorted([1, 'a'])}", nil)
	assert.Equal(t, errors.ErrUnorderable, err.Code)
}

func TestBuiltins_Names(t *testing.T) {
	names := Builtins()
	assert.Contains(t, names, "len")
	assert.Contains(t, names, "sorted")
	assert.IsIncreasing(t, names)
}
