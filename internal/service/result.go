package service

// ResultState 标记一次读取操作所处的阶段
type ResultState int

const (
	StateLoading ResultState = iota
	StateSuccess
	StateFailure
)

// Result 是三态结果包装：Loading / Success(value) / Failure(err)。
// 聚合操作只通过它向上层报告结果，不向外抛出异常。
type Result[T any] struct {
	state ResultState
	value T
	err   error
}

// Loading 构造加载中的结果
func Loading[T any]() Result[T] {
	return Result[T]{state: StateLoading}
}

// Success 构造成功结果
func Success[T any](value T) Result[T] {
	return Result[T]{state: StateSuccess, value: value}
}

// Failure 构造失败结果
func Failure[T any](err error) Result[T] {
	return Result[T]{state: StateFailure, err: err}
}

// State 返回当前阶段
func (r Result[T]) State() ResultState {
	return r.state
}

// Value 返回成功值；仅当 State 为 StateSuccess 时第二个返回值为 true
func (r Result[T]) Value() (T, bool) {
	return r.value, r.state == StateSuccess
}

// Err 返回失败原因；非失败态时为 nil
func (r Result[T]) Err() error {
	if r.state != StateFailure {
		return nil
	}
	return r.err
}
