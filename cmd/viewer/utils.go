package main

// HandleErr 只用于启动阶段无法恢复的错误
func HandleErr(err error) {
	if err != nil {
		panic(err)
	}
}
