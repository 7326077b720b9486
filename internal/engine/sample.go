package engine

// Built-in content used whenever the resume file or the portfolio site
// cannot be loaded.

const SampleResume = `JEEVA - SOFTWARE DEVELOPER

EXPERIENCE:
- Senior Software Developer at TechCorp (2022-Present)
  • Developed full-stack web applications using React, Node.js, and MongoDB
  • Led a team of 5 developers in building scalable microservices
  • Implemented CI/CD pipelines using Docker and Kubernetes

- Software Developer at StartupXYZ (2020-2022)
  • Built responsive web applications using modern JavaScript frameworks
  • Collaborated with design team to create intuitive user interfaces
  • Optimized application performance resulting in 40% faster load times

SKILLS:
- Frontend: React, Vue.js, TypeScript, HTML5, CSS3, Tailwind CSS
- Backend: Node.js, Express.js, Python, Django, FastAPI
- Databases: MongoDB, PostgreSQL, Redis
- Cloud: AWS, Google Cloud Platform, Docker, Kubernetes
- Tools: Git, GitHub, Jenkins, VS Code, Figma

EDUCATION:
- Bachelor of Computer Science, University of Technology (2018-2022)
- Relevant Coursework: Data Structures, Algorithms, Software Engineering

PROJECTS:
- E-commerce Platform: Full-stack application with React frontend and Node.js backend
- Task Management App: Real-time collaborative tool with WebSocket integration
- Data Visualization Dashboard: Interactive charts using D3.js and React`

const SamplePortfolio = `Welcome to Jeeva's Portfolio

ABOUT ME:
I'm a passionate software developer with 4+ years of experience building scalable web applications. I specialize in full-stack development with a focus on modern JavaScript frameworks and cloud technologies.

MY WORK:
- Built 20+ web applications serving thousands of users
- Expertise in React, Node.js, and cloud deployment
- Passionate about clean code and user experience
- Open source contributor and tech blogger

RECENT PROJECTS:
1. E-commerce Platform - A full-featured online store with payment integration
2. Task Management App - Collaborative project management tool
3. Data Analytics Dashboard - Real-time data visualization platform

TECHNOLOGIES:
Frontend: React, Vue.js, TypeScript, HTML5, CSS3
Backend: Node.js, Python, Express.js, Django
Database: MongoDB, PostgreSQL, Redis
Cloud: AWS, Google Cloud, Docker, Kubernetes

CONTACT:
Ready to discuss your next project or collaboration opportunities.`
