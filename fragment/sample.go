package fragment

import "io"

const arithmeticSource = `
def add_numbers(a, b):
    return a + b

def multiply_numbers(x, y):
    return x * y

def process_data(data_list):
    return [x * 2 for x in data_list]
`

const geometrySource = `
load("math", "math")

def calculate_circle_area(radius):
    return math.pi * radius * radius

def format_number(num, decimals = 2):
    scale = math.pow(10, decimals)
    return math.round(num * scale) / scale
`

// Samples returns the sample fragment document. The first fragment declares
// a dependency that no registry provides.
func Samples() []Descriptor {
	return []Descriptor{
		{
			Repo:       "example_repo",
			Path:       "/path/to/example.star",
			SourceText: arithmeticSource,
			CallChain: []string{
				"result1 = add_numbers(5, 3)",
				"result2 = multiply_numbers(result1, 2)",
				"data = [1, 2, 3, 4]",
				"processed_data = process_data(data)",
				"result2",
				"processed_data",
			},
			Parameters:   map[string]any{"param1": 10, "param2": 20},
			Dependencies: []string{"math", "collections"},
		},
		{
			Repo:       "another_repo",
			Path:       "/path/to/another.star",
			SourceText: geometrySource,
			CallChain: []string{
				"area = calculate_circle_area(radius)",
				"formatted_area = format_number(area)",
				"formatted_area",
			},
			Parameters:   map[string]any{"radius": 5.0},
			Dependencies: []string{"math"},
		},
	}
}

// WriteSamples encodes Samples to w.
func WriteSamples(w io.Writer, format Format) error {
	return Encode(w, Samples(), format)
}
