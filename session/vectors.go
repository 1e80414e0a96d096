package session

// NewVectorSet returns vec_num contiguous rows of vec_len elements where
// every element of row i is vec_len*i.
func NewVectorSet(vec_len, vec_num int) []float32 {
	data := make([]float32, vec_len*vec_num)
	for i := 0; i < vec_num; i++ {
		row := data[i*vec_len : (i+1)*vec_len]
		for j := range row {
			row[j] = float32(vec_len * i)
		}
	}
	return data
}

// Row returns row i of a contiguous vector set.
func Row(data []float32, vec_len, i int) []float32 {
	return data[i*vec_len : (i+1)*vec_len]
}

// VecSumGold reports whether result row i-1 is the element-wise sum of
// rows i-1 and i of a, for every i in [1, vec_num).
func VecSumGold(a, res []float32, vec_len, vec_num int) bool {
	if len(a) < vec_len*vec_num || len(res) < vec_len*(vec_num-1) {
		return false
	}
	for i := 1; i < vec_num; i++ {
		for j := 0; j < vec_len; j++ {
			gold_res := a[(i-1)*vec_len+j] + a[i*vec_len+j]
			if gold_res != res[(i-1)*vec_len+j] {
				return false
			}
		}
	}
	return true
}
